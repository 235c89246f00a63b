package exam2pdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Answer field keys in questionData, in option order.
var answerKeys = [4]string{"ans1_plain_text", "ans2_plain_text", "ans3_plain_text", "ans4_plain_text"}

const titleKey = "question_plain_title"

// Question is one record returned by the questions endpoint.
type Question struct {
	Data QuestionData
}

// QuestionData holds the renderable fields of a question.
// Title and each answer are plain text or an HTML snippet (see IsMarkup).
type QuestionData struct {
	Title   string
	Answers [4]string
	// Extra keeps every other field of questionData after normalization.
	Extra map[string]any
}

// FieldError reports a missing or mistyped field in a question record.
type FieldError struct {
	Index int    // zero-based position in the list
	Field string // JSON key
	Msg   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("question %d: %s: %s", e.Index+1, e.Field, e.Msg)
}

// Unwrap lets errors.Is match ErrInvalidQuestion.
func (e *FieldError) Unwrap() error { return ErrInvalidQuestion }

// ParseError reports malformed JSON with its position.
type ParseError struct {
	Offset int64 // byte offset of the error
	Line   int   // 1-based
	Column int   // 1-based
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v (line %d, column %d, offset %d)", ErrInvalidJSON, e.Err, e.Line, e.Column, e.Offset)
}

// Unwrap returns both the sentinel and the decoder error.
func (e *ParseError) Unwrap() []error { return []error{ErrInvalidJSON, e.Err} }

// ParseQuestions decodes the questions payload, normalizes "true"/"false"/"null"
// string tokens and validates every record.
// The payload is a JSON array of records, or an object holding that array
// under "data" or "questions".
func ParseQuestions(data []byte) ([]Question, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newParseError(data, err)
	}

	list, err := questionList(NormalizeValues(raw))
	if err != nil {
		return nil, err
	}

	questions := make([]Question, 0, len(list))
	for i, item := range list {
		q, err := decodeQuestion(i, item)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// questionList finds the record array in a normalized payload.
func questionList(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		for _, key := range []string{"data", "questions"} {
			if list, ok := t[key].([]any); ok {
				return list, nil
			}
		}
		return nil, fmt.Errorf("%w: object has no \"data\" or \"questions\" array", ErrInvalidJSON)
	case nil:
		return nil, fmt.Errorf("%w: payload is null", ErrInvalidJSON)
	}
	return nil, fmt.Errorf("%w: expected array of questions, got %T", ErrInvalidJSON, v)
}

func decodeQuestion(index int, item any) (Question, error) {
	record, ok := item.(map[string]any)
	if !ok {
		return Question{}, &FieldError{Index: index, Field: "questionData", Msg: "record is not an object"}
	}
	rawData, ok := record["questionData"]
	if !ok {
		return Question{}, &FieldError{Index: index, Field: "questionData", Msg: "missing"}
	}
	fields, ok := rawData.(map[string]any)
	if !ok {
		return Question{}, &FieldError{Index: index, Field: "questionData", Msg: fmt.Sprintf("expected object, got %T", rawData)}
	}

	var qd QuestionData
	var err error
	if qd.Title, err = textField(index, fields, titleKey); err != nil {
		return Question{}, err
	}
	for i, key := range answerKeys {
		if qd.Answers[i], err = textField(index, fields, key); err != nil {
			return Question{}, err
		}
	}

	qd.Extra = make(map[string]any, len(fields))
	for k, v := range fields {
		if k == titleKey || isAnswerKey(k) {
			continue
		}
		qd.Extra[k] = v
	}
	return Question{Data: qd}, nil
}

// textField reads a required text field. Normalization may have turned a
// literal answer such as "True" into a bool, so scalars are rendered back
// to text. JSON null is kept as an empty answer.
func textField(index int, fields map[string]any, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", &FieldError{Index: index, Field: key, Msg: "missing"}
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	case bool:
		if t {
			return "True", nil
		}
		return "False", nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	return "", &FieldError{Index: index, Field: key, Msg: fmt.Sprintf("expected text, got %T", v)}
}

func isAnswerKey(k string) bool {
	for _, key := range answerKeys {
		if k == key {
			return true
		}
	}
	return false
}

// newParseError wraps a decoder error with line and column when the
// decoder reports an offset.
func newParseError(data []byte, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return &ParseError{Line: 1, Column: 1, Err: err}
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	line, col := lineColumn(data, offset)
	return &ParseError{Offset: offset, Line: line, Column: col, Err: err}
}

// lineColumn converts a decoder offset into the 1-based line and column of
// the offending byte. The decoder reports offsets just past that byte.
func lineColumn(data []byte, offset int64) (line, col int) {
	pos := int(offset) - 1
	pos = max(0, min(pos, len(data)))
	before := data[:pos]
	line = bytes.Count(before, []byte{'\n'}) + 1
	col = pos - bytes.LastIndexByte(before, '\n')
	return line, col
}
