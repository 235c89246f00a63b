package exam2pdf

import (
	"errors"
	"strings"
	"testing"
)

const twoQuestions = `[
  {"questionData": {
    "question_plain_title": "What is 2 + 2?",
    "ans1_plain_text": "3", "ans2_plain_text": "4",
    "ans3_plain_text": "5", "ans4_plain_text": "22",
    "difficulty": "easy"
  }},
  {"questionData": {
    "question_plain_title": "The earth is flat.",
    "ans1_plain_text": "True", "ans2_plain_text": "false",
    "ans3_plain_text": "null", "ans4_plain_text": null
  }}
]`

func TestParseQuestions(t *testing.T) {
	t.Parallel()

	questions, err := ParseQuestions([]byte(twoQuestions))
	if err != nil {
		t.Fatalf("ParseQuestions() error = %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len = %d, want 2", len(questions))
	}

	first := questions[0].Data
	if first.Title != "What is 2 + 2?" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Answers != [4]string{"3", "4", "5", "22"} {
		t.Errorf("Answers = %q", first.Answers)
	}
	if first.Extra["difficulty"] != "easy" {
		t.Errorf("Extra = %v, want difficulty kept", first.Extra)
	}
	if _, ok := first.Extra[titleKey]; ok {
		t.Error("Extra should not repeat the title")
	}

	// Normalized tokens are rendered back to text.
	second := questions[1].Data
	if second.Answers != [4]string{"True", "False", "", ""} {
		t.Errorf("Answers = %q, want [True False  ]", second.Answers)
	}
}

func TestParseQuestions_Envelope(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"data", "questions"} {
		payload := `{"status": "ok", "` + key + `": ` + twoQuestions + `}`
		questions, err := ParseQuestions([]byte(payload))
		if err != nil {
			t.Fatalf("%s envelope: error = %v", key, err)
		}
		if len(questions) != 2 {
			t.Errorf("%s envelope: len = %d, want 2", key, len(questions))
		}
	}
}

func TestParseQuestions_Empty(t *testing.T) {
	t.Parallel()

	questions, err := ParseQuestions([]byte(`[]`))
	if err != nil {
		t.Fatalf("ParseQuestions([]) error = %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("len = %d, want 0", len(questions))
	}
}

func TestParseQuestions_FieldErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		payload   string
		wantIndex int
		wantField string
	}{
		{
			name:      "missing questionData",
			payload:   `[{"id": 1}]`,
			wantField: "questionData",
		},
		{
			name:      "questionData not an object",
			payload:   `[{"questionData": "x"}]`,
			wantField: "questionData",
		},
		{
			name:      "record not an object",
			payload:   `[42]`,
			wantField: "questionData",
		},
		{
			name:      "missing title in second record",
			payload:   `[` + validRecord("a") + `, {"questionData": {"ans1_plain_text": "1", "ans2_plain_text": "2", "ans3_plain_text": "3", "ans4_plain_text": "4"}}]`,
			wantIndex: 1,
			wantField: titleKey,
		},
		{
			name:      "missing fourth answer",
			payload:   `[{"questionData": {"question_plain_title": "q", "ans1_plain_text": "1", "ans2_plain_text": "2", "ans3_plain_text": "3"}}]`,
			wantField: "ans4_plain_text",
		},
		{
			name:      "answer is an object",
			payload:   `[{"questionData": {"question_plain_title": "q", "ans1_plain_text": {"x": 1}, "ans2_plain_text": "2", "ans3_plain_text": "3", "ans4_plain_text": "4"}}]`,
			wantField: "ans1_plain_text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseQuestions([]byte(tt.payload))
			if !errors.Is(err, ErrInvalidQuestion) {
				t.Fatalf("error = %v, want ErrInvalidQuestion", err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %T, want *FieldError", err)
			}
			if fe.Index != tt.wantIndex || fe.Field != tt.wantField {
				t.Errorf("FieldError = {%d %s}, want {%d %s}", fe.Index, fe.Field, tt.wantIndex, tt.wantField)
			}
		})
	}
}

func TestParseQuestions_NumericAnswer(t *testing.T) {
	t.Parallel()

	payload := `[{"questionData": {"question_plain_title": "Pick", "ans1_plain_text": 4, "ans2_plain_text": 2.5, "ans3_plain_text": "x", "ans4_plain_text": "y"}}]`
	questions, err := ParseQuestions([]byte(payload))
	if err != nil {
		t.Fatalf("ParseQuestions() error = %v", err)
	}
	if got := questions[0].Data.Answers; got[0] != "4" || got[1] != "2.5" {
		t.Errorf("Answers = %q, want 4 and 2.5", got)
	}
}

func TestParseQuestions_SyntaxError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  string
		wantLine int
		wantCol  int
	}{
		{name: "first line", payload: `[{"questionData": }]`, wantLine: 1, wantCol: 19},
		{name: "third line", payload: "[\n  {\"questionData\":\n    ,}]", wantLine: 3, wantCol: 5},
		{name: "empty input", payload: "", wantLine: 1, wantCol: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseQuestions([]byte(tt.payload))
			if !errors.Is(err, ErrInvalidJSON) {
				t.Fatalf("error = %v, want ErrInvalidJSON", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %T, want *ParseError", err)
			}
			if pe.Line != tt.wantLine || pe.Column != tt.wantCol {
				t.Errorf("position = %d:%d, want %d:%d (offset %d)", pe.Line, pe.Column, tt.wantLine, tt.wantCol, pe.Offset)
			}
			if !strings.Contains(pe.Error(), "line") {
				t.Errorf("Error() = %q, want position", pe.Error())
			}
		})
	}
}

func TestParseQuestions_WrongShape(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{`null`, `"questions"`, `{"items": []}`, `12`} {
		if _, err := ParseQuestions([]byte(payload)); !errors.Is(err, ErrInvalidJSON) {
			t.Errorf("ParseQuestions(%s) error = %v, want ErrInvalidJSON", payload, err)
		}
	}
}

func TestFieldError_Message(t *testing.T) {
	t.Parallel()

	err := &FieldError{Index: 2, Field: "ans3_plain_text", Msg: "missing"}
	if got, want := err.Error(), "question 3: ans3_plain_text: missing"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func validRecord(title string) string {
	return `{"questionData": {"question_plain_title": "` + title + `", "ans1_plain_text": "1", "ans2_plain_text": "2", "ans3_plain_text": "3", "ans4_plain_text": "4"}}`
}
