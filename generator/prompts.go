package generator

import (
	"fmt"
	"strings"

	"linkedin-news-bot/config"
	"linkedin-news-bot/news"
)

func buildPostPrompt(article news.Article, style config.Style, extraContent string) string {
	summary := article.Summary
	if summary == "" {
		summary = "No summary available"
	}
	source := article.Source
	if source == "" {
		source = "Unknown source"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You're a professional AI specialist creating an ENGAGING, AUTHENTIC LinkedIn post about this AI news.
Your post should sound completely human-written, conversational, and insightful.

ARTICLE INFORMATION:
Title: %s
Summary: %s
Source: %s
Link: %s
`, article.Title, summary, source, article.Link)

	if extraContent != "" {
		fmt.Fprintf(&b, "\nARTICLE EXCERPT:\n%s\n", extraContent)
	}

	fmt.Fprintf(&b, `
POST STYLE:
- Write in a %s tone that sounds like a real person
- %s
- %s

CONTENT STRUCTURE:
1. OPENER: Begin with a thought-provoking question, surprising fact, or personal observation related to the news
2. YOUR TAKE: Share what YOU find interesting about this development
3. BROADER IMPACT: Connect this to industry trends or how it might change things
4. PERSONAL ANGLE: Add a brief reflection on how this relates to your experience or perspective
5. ENGAGEMENT: End with a SPECIFIC, THOUGHT-PROVOKING question
6. LINK: Include the article link organically within the text
7. HASHTAGS: Add 3-4 relevant, specific hashtags

WRITING GUIDELINES:
- Use a natural, conversational voice like you're talking to a colleague
- Include occasional "I" statements to make it personal
- Use short paragraphs with line breaks between them
- Include 1-2 relevant emojis placed naturally
- Use varied sentence structures
- Avoid jargon unless you briefly explain it

WHAT TO AVOID:
- Generic openings like "I found this interesting article"
- Any hint of marketing language or corporate speak
- Excessive formality or academic tone
- Overly complex or dense sentences

Return ONLY the finished post text without any additional explanations or formatting.`,
		style.Tone, style.Approach, style.Unique)

	return b.String()
}

func buildVariationPrompt(article news.Article, instruction string) string {
	summary := article.Summary
	if summary == "" {
		summary = "No summary available"
	}
	source := article.Source
	if source == "" {
		source = "Unknown source"
	}

	return fmt.Sprintf(`You're a professional AI specialist creating an AUTHENTIC, ENGAGING LinkedIn post about this AI news.
Make it sound completely human-written.

ARTICLE INFORMATION:
Title: %s
Summary: %s
Source: %s
Link: %s

POST STYLE:
- %s
- Include a personal reflection element that feels authentic
- Share a genuine-sounding personal reaction to the news
- End with a question that invites genuine conversation

AVOID ANYTHING THAT SOUNDS:
- Corporate or overly polished
- Generic or templated
- Like it was written by AI

Return ONLY the finished post text without any additional explanations or formatting.`,
		article.Title, summary, source, article.Link, instruction)
}

func buildReplyPrompt(commentText, articleTitle string) string {
	return fmt.Sprintf(`You're the author of a LinkedIn post about this AI news article: %q

Someone left this comment on your post:
%q

Write a brief, friendly, substantive reply (2-3 sentences). Acknowledge
their point, add one genuine thought of your own, and keep the tone of a
helpful professional. No hashtags, no links.

Return ONLY the reply text.`, articleTitle, commentText)
}
