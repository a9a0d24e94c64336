package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vnkhanh/e-learning-backend/models"
)

const maxMaterialRunes = 20000

// GeminiGenerator drafts quiz questions with the Gemini API.
type GeminiGenerator struct {
	apiKey string
	model  string
}

func NewGeminiGenerator(apiKey, model string) *GeminiGenerator {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiGenerator{apiKey: apiKey, model: model}
}

func (g *GeminiGenerator) GenerateQuestions(ctx context.Context, material string, count int) ([]models.QuizQuestion, error) {
	text, err := g.generateText(ctx, questionPrompt(material, count))
	if err != nil {
		return nil, err
	}
	return parseGeneratedQuestions(text)
}

func (g *GeminiGenerator) generateText(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

func questionPrompt(material string, count int) string {
	if r := []rune(material); len(r) > maxMaterialRunes {
		material = string(r[:maxMaterialRunes])
	}
	return fmt.Sprintf(`You write multiple choice quiz questions for an online course lesson.
Write exactly %d questions based only on the lesson material below.
Each question has 4 answers and exactly one correct answer.
Reply with a JSON array only, no markdown, in this shape:
[{"question": "...", "answers": ["...", "...", "...", "..."], "correct": 0}]
where "correct" is the zero-based index of the correct answer.

Lesson material:
%s`, count, material)
}

type generatedQuestion struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
	Correct  int      `json:"correct"`
}

// parseGeneratedQuestions decodes the model reply. Code fences are tolerated
// and malformed entries are skipped.
func parseGeneratedQuestions(text string) ([]models.QuizQuestion, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var drafted []generatedQuestion
	if err := json.Unmarshal([]byte(text), &drafted); err != nil {
		return nil, fmt.Errorf("decode generated questions: %w", err)
	}

	out := make([]models.QuizQuestion, 0, len(drafted))
	for _, d := range drafted {
		if strings.TrimSpace(d.Question) == "" || len(d.Answers) < 2 || d.Correct < 0 || d.Correct >= len(d.Answers) {
			continue
		}
		q := models.QuizQuestion{QuestionText: strings.TrimSpace(d.Question), Points: 1}
		for i, a := range d.Answers {
			q.Answers = append(q.Answers, models.QuizAnswer{
				AnswerText: strings.TrimSpace(a),
				IsCorrect:  i == d.Correct,
			})
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("gemini reply contained no usable questions")
	}
	return out, nil
}
