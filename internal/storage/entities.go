package storage

import "time"

// Job lifecycle statuses.
const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
	JobStatusDraft  = "draft"
)

// MessageTypeText is the default message type when the caller does not set one.
const MessageTypeText = "text"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	Phone        string    `json:"phone,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Job struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Region         string    `json:"region"`
	District       string    `json:"district"`
	SalaryMin      int64     `json:"salaryMin"`
	SalaryMax      int64     `json:"salaryMax"`
	Currency       string    `json:"currency"`
	EmploymentType string    `json:"employmentType"`
	Requirements   []string  `json:"requirements"`
	Benefits       []string  `json:"benefits"`
	CompanyName    string    `json:"companyName"`
	ContactPhone   string    `json:"contactPhone"`
	ContactEmail   string    `json:"contactEmail"`
	PostedBy       string    `json:"postedBy"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// JobFilter narrows job listing queries. Zero-value fields are ignored.
type JobFilter struct {
	Category       string
	Region         string
	EmploymentType string
	Status         string
	Query          string
	Limit          int
}

// LastMessage is the denormalized summary cached on a conversation.
type LastMessage struct {
	Content  string    `json:"content"`
	SenderID string    `json:"senderId"`
	SentAt   time.Time `json:"sentAt"`
}

// Conversation holds exactly two participants. UnreadCount and Typing are
// keyed by participant id; a missing key reads as zero/false.
type Conversation struct {
	ID           string          `json:"id"`
	Participants []string        `json:"participants"`
	JobID        string          `json:"jobId,omitempty"`
	JobTitle     string          `json:"jobTitle,omitempty"`
	LastMessage  *LastMessage    `json:"lastMessage,omitempty"`
	UnreadCount  map[string]int  `json:"unreadCount"`
	Typing       map[string]bool `json:"typing,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	SenderAvatar   string    `json:"senderAvatar,omitempty"`
	ReceiverID     string    `json:"receiverId"`
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	MediaURL       string    `json:"mediaUrl,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewUser carries the fields needed to create a user record.
type NewUser struct {
	Email        string
	DisplayName  string
	Phone        string
	AvatarURL    string
	PasswordHash string
}

// NewJob carries the fields needed to create a job record.
type NewJob struct {
	Title          string
	Description    string
	Category       string
	Region         string
	District       string
	SalaryMin      int64
	SalaryMax      int64
	Currency       string
	EmploymentType string
	Requirements   []string
	Benefits       []string
	CompanyName    string
	ContactPhone   string
	ContactEmail   string
	PostedBy       string
	Status         string
}

// NewConversation carries the fields needed to create a conversation record.
// Unread counters for both participants are zero-initialized on insert.
type NewConversation struct {
	Participants [2]string
	JobID        string
	JobTitle     string
}

// NewMessage carries the fields needed to append a message. Type defaults
// to MessageTypeText when blank.
type NewMessage struct {
	ConversationID string
	SenderID       string
	SenderName     string
	SenderAvatar   string
	ReceiverID     string
	Content        string
	Type           string
	MediaURL       string
}
