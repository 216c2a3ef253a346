package service

import (
	"net/url"
	"strconv"

	"github.com/mbertrand/plume/internal/models"
)

// springPage is the backend's page envelope. It is decoded here and
// converted immediately; callers only ever see models.Page.
type springPage[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

func (p springPage[T]) toPage() models.Page[T] {
	return models.Page[T]{
		Content:       p.Content,
		Number:        p.Number,
		Size:          p.Size,
		TotalPages:    p.TotalPages,
		TotalElements: p.TotalElements,
		First:         p.First,
		Last:          p.Last,
	}
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}
