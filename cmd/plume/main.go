package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/mbertrand/plume/internal/controller"
	"github.com/mbertrand/plume/internal/httpapi"
	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/service"
	"github.com/mbertrand/plume/internal/session"
	"github.com/mbertrand/plume/pkg/config"
	"github.com/mbertrand/plume/pkg/logging"
)

type app struct {
	store    session.Store
	auth     *service.AuthService
	articles *service.ArticleService
	comments *service.CommentService
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)

	store, err := session.OpenFileStore(cfg.SessionPath)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}

	api := httpapi.New(httpapi.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Store:   store,
		OnSessionExpired: func() {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		},
	})

	a := &app{
		store:    store,
		auth:     &service.AuthService{API: api, Store: store},
		articles: &service.ArticleService{API: api},
		comments: &service.CommentService{API: api},
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "plume: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: plume <command> [args]

  login <username>            log in (password read from terminal)
  register <username> <email> create an account
  logout                      end the session
  whoami                      show the logged-in user
  articles [-page N -size N]  list published articles
  mine     [-page N -size N]  list your articles
  article <id>                show one article
  search <keyword>            search published articles
  publish <id>                toggle an article's published flag
  comments <articleId>        list an article's comments
  comment <articleId> <text>  add a comment`)
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		auth := controller.NewAuth(a.auth, a.store)
		return auth.Logout(ctx)
	case "whoami":
		return a.whoami()
	case "articles":
		return a.list(ctx, args, false)
	case "mine":
		return a.list(ctx, args, true)
	case "article":
		return a.show(ctx, args)
	case "search":
		return a.search(ctx, args)
	case "publish":
		return a.publish(ctx, args)
	case "comments":
		return a.listComments(ctx, args)
	case "comment":
		return a.addComment(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: plume login <username>")
	}

	fmt.Fprint(os.Stderr, "password: ")
	password, err := readPassword()
	if err != nil {
		return err
	}

	auth := controller.NewAuth(a.auth, a.store)
	sess, err := auth.Login(ctx, models.LoginRequest{Username: args[0], Password: password})
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (expires %s)\n", sess.User.Username, sess.ExpiresAt)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: plume register <username> <email>")
	}

	fmt.Fprint(os.Stderr, "password: ")
	password, err := readPassword()
	if err != nil {
		return err
	}

	auth := controller.NewAuth(a.auth, a.store)
	if err := auth.Register(ctx, models.RegisterRequest{
		Username: args[0],
		Email:    args[1],
		Password: password,
	}); err != nil {
		return err
	}
	fmt.Println("account created, you can log in now")
	return nil
}

func (a *app) whoami() error {
	u := a.store.CurrentUser()
	if u == nil {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s <%s> roles=%s\n", u.Username, u.Email, strings.Join(u.Roles, ","))
	return nil
}

func (a *app) list(ctx context.Context, args []string, mine bool) error {
	fs := flag.NewFlagSet("articles", flag.ContinueOnError)
	page := fs.Int("page", 0, "page number")
	size := fs.Int("size", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var c *controller.Collection[models.Article]
	if mine {
		c = controller.NewMyArticles(a.articles, *page, *size).Collection
	} else {
		c = controller.NewArticles(a.articles, *page, *size).Collection
	}
	defer c.Close()

	if err := c.Fetch(ctx, *page, *size); err != nil {
		return err
	}
	printArticles(c.State())
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := parseID(args, "article <id>")
	if err != nil {
		return err
	}

	c := controller.NewArticle(a.articles, id)
	defer c.Close()
	if err := c.Load(ctx); err != nil {
		return err
	}

	art := c.State().Item
	fmt.Printf("#%d %s — %s (published=%v, comments=%d)\n", art.ID, art.Title, art.AuthorUsername, art.Published, art.CommentsCount)
	if len(art.Tags) > 0 {
		fmt.Printf("tags: %s\n", strings.Join(art.Tags, ", "))
	}
	fmt.Println()
	fmt.Println(art.Body)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: plume search <keyword>")
	}

	c := controller.NewArticles(a.articles, 0, 10)
	defer c.Close()
	if err := c.Search(ctx, args[0], 10); err != nil {
		return err
	}
	printArticles(c.State())
	return nil
}

func (a *app) publish(ctx context.Context, args []string) error {
	id, err := parseID(args, "publish <id>")
	if err != nil {
		return err
	}

	c := controller.NewArticle(a.articles, id)
	defer c.Close()
	art, err := c.TogglePublish(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("#%d %s published=%v\n", art.ID, art.Title, art.Published)
	return nil
}

func (a *app) listComments(ctx context.Context, args []string) error {
	articleID, err := parseID(args, "comments <articleId>")
	if err != nil {
		return err
	}

	c := controller.NewComments(a.comments, articleID, 0, 10)
	defer c.Close()
	if err := c.Fetch(ctx, 0, 10); err != nil {
		return err
	}

	st := c.State()
	for _, cm := range st.Items {
		fmt.Printf("#%d %s: %s\n", cm.ID, cm.AuthorUsername, cm.Body)
	}
	fmt.Printf("page %d/%d (%d comments)\n", st.Pagination.Page+1, max(st.Pagination.TotalPages, 1), st.Pagination.TotalElements)
	return nil
}

func (a *app) addComment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: plume comment <articleId> <text>")
	}
	articleID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid article id %q", args[0])
	}

	c := controller.NewComments(a.comments, articleID, 0, 10)
	defer c.Close()
	cm, err := c.Create(ctx, models.CommentRequest{Body: strings.Join(args[1:], " ")})
	if err != nil {
		return err
	}
	fmt.Printf("comment #%d added\n", cm.ID)
	return nil
}

func printArticles(st controller.CollectionState[models.Article]) {
	for _, art := range st.Items {
		fmt.Printf("#%d %s — %s (comments=%d)\n", art.ID, art.Title, art.AuthorUsername, art.CommentsCount)
	}
	fmt.Printf("page %d/%d (%d articles)\n", st.Pagination.Page+1, max(st.Pagination.TotalPages, 1), st.Pagination.TotalElements)
}

func parseID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: plume %s", usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

func readPassword() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	r := bufio.NewReader(os.Stdin)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
