package qa

import (
	"fmt"
	"strings"

	"github.com/dgallion1/lawdesk/internal/index"
	"github.com/dgallion1/lawdesk/internal/statute"
)

const recommendSystemPrompt = `너는 법령 조항을 분석하는 전문가다.
사용자의 질문과 관련된 조항 이름을 관련도가 높은 순으로 2개에서 7개 사이로 추천해야 한다.

중요 규칙:
1. 반드시 JSON 배열 형식으로만 답변한다. 예: ["조항이름1", "조항이름2", "조항이름3"]
2. 다른 설명이나 텍스트는 절대 포함하지 않는다.
3. 조항 이름은 제공된 목록에서 정확히 선택해야 한다.
4. 2개 이상 7개 이하로 추천한다.
5. 한글로만 답변한다.
6. 금액, 수치, 법령 조문 번호는 원문 그대로 유지한다.`

const answerSystemPrompt = `너는 공공기관 법령 질의에 답변하는 실무 보조 AI다.
다음 규칙을 반드시 지켜라:
1. 모든 답변은 반드시 한글로만 작성한다. 영어, 로마자, 기호는 사용하지 않는다.
2. 금액, 수치, 법령 조문 번호는 원문 그대로 유지한다.
3. 답변은 반드시 최대 10개 항목까지만 작성한다.
4. 불필요한 설명, 반복 문장, 유사 표현을 금지한다.
5. 각 항목은 2~3문장 이내로 간결하게 작성한다.
6. 법령 근거는 항목별이 아니라 답변 맨 마지막에 한 번만 제시한다.
7. 근거 형식은 반드시 "[근거: 법령명 제○조]" 같이 작성한다.`

// recommendPrompt renders the question and the numbered title catalogue.
func recommendPrompt(question string, titles []index.TitleRef) string {
	lines := make([]string, len(titles))
	for i, t := range titles {
		lines[i] = fmt.Sprintf("%d. %s", i+1, t.Title)
	}
	return fmt.Sprintf("사용자 질문: %s\n\n"+
		"다음은 해당 분야의 모든 조항 이름 목록입니다:\n%s\n\n"+
		"질문에 나온 단어가 조항이름에 있으면 꼭 추천하세요.\n"+
		"위 질문과 가장 관련이 높은 조항 이름을 2개에서 7개 사이로 선택하여 JSON 배열 형식으로만 답변하세요.\n"+
		"예시: [\"조항이름1\", \"조항이름2\", \"조항이름3\"]",
		question, strings.Join(lines, "\n"))
}

// answerPrompt lays out every resolved article under its citation header,
// then the question.
func answerPrompt(question string, chunks []statute.Chunk) string {
	var b strings.Builder
	b.WriteString("다음 법령 조문을 참고하여 질문에 한글로만 답변해주세요. 절대 영어를 사용하지 마세요:\n\n")
	for _, c := range chunks {
		b.WriteString(c.Header())
		b.WriteString("\n")
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("\n질문: ")
	b.WriteString(question)
	return b.String()
}
