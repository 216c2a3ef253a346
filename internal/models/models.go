package models

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Session is the locally cached proof of authentication. Token and User
// are always stored and cleared together.
type Session struct {
	Token     string `json:"token"`
	User      User   `json:"user"`
	ExpiresAt string `json:"expiresAt"`
}

// Article carries the backend's wire names on the tags, including the
// misspelled "updateAt" the API actually sends.
type Article struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Body           string   `json:"contenu"`
	Published      bool     `json:"published"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updateAt"`
	PublishedAt    *string  `json:"publishedAt"`
	Tags           []string `json:"tags"`
	AuthorID       int64    `json:"authorId"`
	AuthorUsername string   `json:"authorUsername"`
	CommentsCount  int      `json:"commentsCount"`
}

type Comment struct {
	ID                   int64   `json:"id"`
	Body                 string  `json:"contenu"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
	AuthorID             int64   `json:"authorId"`
	AuthorUsername       string  `json:"authorUsername"`
	ArticleID            int64   `json:"articleId"`
	ArticleTitle         string  `json:"articleTitle,omitempty"`
	ParentID             *int64  `json:"parentId"`
	ParentAuthorUsername *string `json:"parentAuthorUsername"`
}

// Page is the canonical paginated slice. Wire-format field names of the
// backend's page envelope never leave the service layer.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalPages    int
	TotalElements int64
	First         bool
	Last          bool
}

// EmptyPage returns a zero page carrying the requested position, used
// before the first fetch settles.
func EmptyPage[T any](page, size int) Page[T] {
	return Page[T]{Number: page, Size: size}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ArticleRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"contenu"`
	Published bool     `json:"published"`
	Tags      []string `json:"tags,omitempty"`
}

type CommentRequest struct {
	Body      string `json:"contenu"`
	ArticleID int64  `json:"articleId"`
	ParentID  *int64 `json:"parentId,omitempty"`
}
