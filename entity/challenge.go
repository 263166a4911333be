package entity

// Challenge 题目只读视图, 题面内容由出题系统维护
type Challenge struct {
	Slug        string `json:"slug" gorm:"column:slug;primaryKey;type:varchar(128)"`
	Title       string `json:"title" gorm:"column:title;type:varchar(255)"`
	TimeLimit   int    `json:"time_limit" gorm:"column:time_limit;not null"`     // 单位: 毫秒
	MemoryLimit int    `json:"memory_limit" gorm:"column:memory_limit;not null"` // 单位: MB
	MaxScore    int    `json:"max_score" gorm:"column:max_score;not null"`
	Published   bool   `json:"published" gorm:"column:published;not null;index"`
}

func (Challenge) TableName() string {
	return "challenges"
}
