package model

// swagger:model Course
type Course struct {
	BaseModel
	Title        string  `gorm:"size:200;not null" json:"title"`
	Description  string  `gorm:"type:text" json:"description"`
	Category     string  `gorm:"size:100" json:"category"`
	Price        float64 `gorm:"default:0" json:"price"`
	Thumbnail    string  `gorm:"size:255" json:"thumbnail"`
	InstructorID uint    `gorm:"index;type:bigint unsigned;not null" json:"instructorId"`
	IsPublished  bool    `gorm:"default:false" json:"isPublished"`

	Sections []Section `gorm:"constraint:OnDelete:CASCADE" json:"sections"`
}

func (Course) TableName() string {
	return "courses"
}

type Section struct {
	BaseModel
	CourseID uint   `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Title    string `gorm:"size:200;not null" json:"title"`
	Position int    `gorm:"default:0" json:"position"`

	Lectures []Lecture `gorm:"constraint:OnDelete:CASCADE" json:"lectures"`
}

func (Section) TableName() string {
	return "sections"
}

type Lecture struct {
	BaseModel
	SectionID uint   `gorm:"index;type:bigint unsigned;not null" json:"sectionId"`
	Title     string `gorm:"size:200;not null" json:"title"`
	Duration  string `gorm:"size:16" json:"duration"` // mm:ss 或 hh:mm:ss
	VideoURL  string `gorm:"size:255" json:"videoUrl"`
	IsPreview bool   `gorm:"default:false" json:"isPreview"`
	Position  int    `gorm:"default:0" json:"position"`
}

func (Lecture) TableName() string {
	return "lectures"
}

// TotalLectures 课程总讲数，由章节派生，章节变更后重新计算
func (c *Course) TotalLectures() int {
	total := 0
	for _, s := range c.Sections {
		total += len(s.Lectures)
	}
	return total
}

// HasLecture 判断讲 ID 是否属于本课程
func (c *Course) HasLecture(lectureID uint) bool {
	for _, s := range c.Sections {
		for _, l := range s.Lectures {
			if l.ID == lectureID {
				return true
			}
		}
	}
	return false
}
