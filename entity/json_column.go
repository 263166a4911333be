package entity

import (
	"database/sql/driver"
	"fmt"

	json "github.com/bytedance/sonic"
)

// StringList 以 JSON 数组存储的字符串列表
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	b, err := columnBytes(src)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(b, l)
}

// SubmissionList 以 JSON 数组存储的提交历史
type SubmissionList []Submission

func (l SubmissionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Submission(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *SubmissionList) Scan(src any) error {
	b, err := columnBytes(src)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*l = SubmissionList{}
		return nil
	}
	return json.Unmarshal(b, l)
}

func columnBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("unsupported json column type %T", src)
}
