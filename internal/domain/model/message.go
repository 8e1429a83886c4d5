package model

import "time"

type MessageFileType string

const (
	FileTypeImage         MessageFileType = "image"
	FileTypeDoc           MessageFileType = "doc"
	FileTypeFinalDelivery MessageFileType = "final_delivery"
)

func ParseMessageFileType(s string) (MessageFileType, bool) {
	switch MessageFileType(s) {
	case FileTypeImage, FileTypeDoc, FileTypeFinalDelivery:
		return MessageFileType(s), true
	}
	return "", false
}

// チャットメッセージ（注文に1対多）
// final_deliveryは注文ごとに1件だけ（部分ユニークインデックスで担保）
type Message struct {
	ID       int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID  int64            `gorm:"not null;index" json:"order_id"`
	SenderID int64            `gorm:"not null;index" json:"sender_id"`
	Content  *string          `gorm:"type:text" json:"content"`
	FilePath *string          `gorm:"type:text" json:"file_path"`
	FileType *MessageFileType `gorm:"type:varchar(20)" json:"file_type"`
	ViewOnce bool             `gorm:"not null;default:false" json:"view_once"`

	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (m Message) IsFinalDelivery() bool {
	return m.FileType != nil && *m.FileType == FileTypeFinalDelivery
}

// 閲覧者向けの表示用。既読のview_once添付は受信者からパスを隠す
func (m Message) VisibleTo(viewerID int64) Message {
	if m.ViewOnce && m.ReadAt != nil && m.SenderID != viewerID {
		m.FilePath = nil
	}
	return m
}
