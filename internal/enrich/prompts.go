package enrich

import "fmt"

func summaryPrompt(title, body string) string {
	return fmt.Sprintf(`You are a professional financial analysis assistant. Read the title and excerpt of an economics article and summarize the key points concisely, focusing on information that could move the stock market.

Requirements:
1. Summarize in 6-7 sentences (about 175 words).
2. Keep a neutral, objective tone.
3. Drop everything non-essential.
4. Reply with the summary only, no greeting or preamble.

Title:
"%s"

Excerpt:
"%s"

Your summary:`, title, body)
}

func analysisPrompt(title, body string) string {
	return fmt.Sprintf(`You are a macro financial analyst for the Vietnamese stock market. Analyze the following article and return the result as a single JSON object.

Article:
- Title: "%s"
- Content: "%s"

Return a JSON object with exactly these keys:
1. "category": one of "Địa chính trị", "Chính sách tiền tệ", "Chính sách tài khóa", "Giá vàng", "Tỷ giá USD", "Tin tức doanh nghiệp", "Thị trường chung", "Không liên quan".
2. "sentiment": exactly one of "Tích cực", "Tiêu cực", "Trung tính".
3. "impact_level": exactly one of "Cao", "Trung bình", "Thấp".
4. "key_entities": an array of the most important entities mentioned (countries, organizations, companies, economic indicators), at most 5.
5. "analysis_summary": one short sentence (at most 25 words) explaining why the news has this sentiment and impact.

IMPORTANT: return the plain JSON object only. No markdown code block, no backticks. Start directly with { and end with }.

Your JSON result:`, title, body)
}
