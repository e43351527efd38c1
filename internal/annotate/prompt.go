// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"text/template"
)

// keywordPromptTmpl asks for three bilingual keywords with a short summary
// each, followed by one theme label chosen from the vocabulary on its own line.
var keywordPromptTmpl = template.Must(template.New("keywords").Parse(`
你是一个网络安全领域的科研导师。给定以下论文的标题和摘要：

Title: {{.Title}}
Abstract: {{.Abstract}}

请执行以下任务：
1.  提取三个最能代表论文研究方向的核心关键词。
2.  每个关键词要求简洁、准确。
3.  在每个关键词后，提供其对应的中文翻译，格式为：` + "`关键词 (中文翻译)`" + `。
4.  在每个关键词及其翻译后，附上一句对该研究方向或关键词含义的简短归纳（15字以内）。
5.  将三个关键词及其相关信息按顺序列出，每个占一行。
6.  在关键词列表之后，另起一行，并根据论文内容从以下主题标签中选择一个最适合的主题标签：

{{.Labels}}

7.  请确保最后一行**只包含**所选主题标签的名称，不要有任何其他文字或格式。

输出格式示例：
Keyword1 (翻译1) - 简短归纳1
Keyword2 (翻译2) - 简短归纳2
Keyword3 (翻译3) - 简短归纳3

选定的主题标签名称
`))

// renderPrompt executes the keyword prompt template for one paper.
func renderPrompt(title, abstract, labels string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Title, Abstract, Labels string }{title, abstract, labels}
	if err := keywordPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
