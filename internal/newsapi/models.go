package newsapi

import (
	"errors"
	"fmt"
)

// StatusOK is the envelope status NewsAPI reports on success.
const StatusOK = "ok"

// Response is one page of a NewsAPI response envelope.
type Response struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles,omitempty"`
	Sources      []Source  `json:"sources,omitempty"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// Article is a single news article.
type Article struct {
	Source      ArticleSource `json:"source"`
	Author      string        `json:"author"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	URLToImage  string        `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
	Content     string        `json:"content"`
}

// ArticleSource is the publisher reference embedded in an article.
type ArticleSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Source is a publisher descriptor returned by the sources endpoint.
type Source struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	Language    string `json:"language"`
	Country     string `json:"country"`
}

// Len returns the number of items carried by the page.
func (r *Response) Len() int {
	return len(r.Articles) + len(r.Sources)
}

var (
	ErrEmptyResponse = errors.New("empty response from News API")
	ErrRemoteStatus  = errors.New("not ok status from News API")
)

// RemoteStatusError is returned when NewsAPI answers with a status other
// than "ok".
type RemoteStatusError struct {
	Operation  Operation
	HTTPStatus int
	Status     string
	Code       string
	Message    string
}

func (e *RemoteStatusError) Error() string {
	msg := fmt.Sprintf("%s: News API %s returned status %q", ErrRemoteStatus, e.Operation, e.Status)
	if e.HTTPStatus != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.HTTPStatus)
	}
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += " - " + e.Message
	}
	return msg
}

func (e *RemoteStatusError) Is(target error) bool {
	return target == ErrRemoteStatus
}

// Validate checks a response envelope for op. A nil response is empty.
func Validate(op Operation, resp *Response) error {
	if resp == nil {
		return fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	if resp.Status != StatusOK {
		return &RemoteStatusError{
			Operation: op,
			Status:    resp.Status,
			Code:      resp.Code,
			Message:   resp.Message,
		}
	}
	return nil
}
