package model

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	QuestionMCQ       QuestionType = "mcq"
	QuestionFillBlank QuestionType = "fill_blank"
)

// QuestionItem 单道题目，带类型标签区分选择题与填空题。
// 判分按 Answer 的精确字符串匹配（区分大小写），因此选择题的
// Answer 必须与某个选项逐字相等，这是校验要守住的合同。
type QuestionItem struct {
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Options  []string     `json:"options,omitempty"` // 仅选择题，2~6个
	Answer   string       `json:"answer"`
}

// QuestionSet 一套校验过的题目，按顺序挂在 Challenge 上
type QuestionSet struct {
	Items []QuestionItem `json:"items"`
}

func (q *QuestionItem) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question text is empty")
	}
	switch q.Type {
	case QuestionMCQ:
		if len(q.Options) < 2 || len(q.Options) > 6 {
			return fmt.Errorf("mcq needs 2-6 options, got %d", len(q.Options))
		}
		for _, opt := range q.Options {
			if opt == q.Answer {
				return nil
			}
		}
		return fmt.Errorf("mcq answer %q is not one of its options", q.Answer)
	case QuestionFillBlank:
		if q.Answer == "" {
			return fmt.Errorf("fill-blank answer is empty")
		}
		return nil
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
}

func (s *QuestionSet) Validate() error {
	if len(s.Items) == 0 {
		return fmt.Errorf("question set is empty")
	}
	for i := range s.Items {
		if err := s.Items[i].Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

func (s *QuestionSet) Marshal() (json.RawMessage, error) {
	return json.Marshal(s)
}

func UnmarshalQuestionSet(raw json.RawMessage) (*QuestionSet, error) {
	var s QuestionSet
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
