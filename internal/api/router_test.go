package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/isdelr/postboard-be/internal/auth"
	"github.com/isdelr/postboard-be/internal/models"
	"github.com/isdelr/postboard-be/internal/services"
	"github.com/isdelr/postboard-be/internal/store/sqlite"
	"github.com/isdelr/postboard-be/internal/websocket"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	hub     *websocket.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := sqlite.Open(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	tokens := auth.NewTokenService("test-secret", time.Hour)
	router := NewRouter(hub, tokens,
		services.NewUserService(st, tokens),
		services.NewPostService(st, hub),
		[]string{"http://localhost:3000"})
	return &testServer{t: t, handler: router, hub: hub}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) expect(rec *httptest.ResponseRecorder, status int, out interface{}) {
	s.t.Helper()
	if rec.Code != status {
		s.t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			s.t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
}

// signup registers and logs in a user, returning the user and its bearer token.
func (s *testServer) signup(name, email string) (models.User, string) {
	s.t.Helper()
	var user models.User
	s.expect(s.do(http.MethodPost, "/users/register", "", map[string]string{
		"name": name, "email": email, "password": "secret12", "password2": "secret12",
	}), http.StatusOK, &user)

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	s.expect(s.do(http.MethodPost, "/users/login", "", map[string]string{
		"email": email, "password": "secret12",
	}), http.StatusOK, &login)
	if !login.Success || !strings.HasPrefix(login.Token, "Bearer ") {
		s.t.Fatalf("unexpected login response: %+v", login)
	}
	return user, login.Token
}

func TestTestRoutes(t *testing.T) {
	s := newTestServer(t)
	var body map[string]string
	s.expect(s.do(http.MethodGet, "/posts/test", "", nil), http.StatusOK, &body)
	if body["msg"] != "Posts Works" {
		t.Fatalf("unexpected body %v", body)
	}
	s.expect(s.do(http.MethodGet, "/users/test", "", nil), http.StatusOK, &body)
	if body["msg"] != "Users Works" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestUsersFlow(t *testing.T) {
	s := newTestServer(t)

	var user map[string]interface{}
	s.expect(s.do(http.MethodPost, "/users/register", "", map[string]string{
		"name": "A", "email": "a@x.com", "password": "secret12", "password2": "secret12",
	}), http.StatusBadRequest, &user)
	if user["name"] == nil {
		t.Fatalf("expected name error for 1 character name, got %v", user)
	}

	s.expect(s.do(http.MethodPost, "/users/register", "", map[string]string{
		"name": "Ann", "email": "a@x.com", "password": "secret12", "password2": "secret12",
	}), http.StatusOK, &user)
	hash, _ := user["password"].(string)
	if hash == "" || hash == "secret12" || !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("expected bcrypt hash in password field, got %v", user["password"])
	}

	var errs map[string]string
	s.expect(s.do(http.MethodPost, "/users/register", "", map[string]string{
		"name": "Other", "email": "a@x.com", "password": "another1", "password2": "another1",
	}), http.StatusBadRequest, &errs)
	if errs["email"] != "Email already exists" {
		t.Fatalf("unexpected errors %v", errs)
	}

	s.expect(s.do(http.MethodPost, "/users/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong-pass",
	}), http.StatusBadRequest, &errs)
	if errs["password"] != "Password incorrect" {
		t.Fatalf("unexpected errors %v", errs)
	}
	if _, ok := errs["token"]; ok {
		t.Fatalf("token must not be returned on failure")
	}

	s.expect(s.do(http.MethodPost, "/users/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret12",
	}), http.StatusNotFound, &errs)
	if errs["email"] != "User not found" {
		t.Fatalf("unexpected errors %v", errs)
	}

	var login struct {
		Token string `json:"token"`
	}
	s.expect(s.do(http.MethodPost, "/users/login", "", map[string]string{
		"email": "a@x.com", "password": "secret12",
	}), http.StatusOK, &login)

	var current map[string]string
	s.expect(s.do(http.MethodGet, "/users/current", login.Token, nil), http.StatusOK, &current)
	if current["id"] != user["id"] || current["email"] != "a@x.com" || current["name"] != "Ann" {
		t.Fatalf("unexpected current user %v", current)
	}

	s.expect(s.do(http.MethodGet, "/users/current", "", nil), http.StatusUnauthorized, nil)
	s.expect(s.do(http.MethodGet, "/users/current", "Bearer nope", nil), http.StatusUnauthorized, nil)
}

func TestInvalidBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostsFlow(t *testing.T) {
	s := newTestServer(t)
	owner, ownerToken := s.signup("Owner", "owner@x.com")
	_, otherToken := s.signup("Other", "other@x.com")

	var posts []models.Post
	s.expect(s.do(http.MethodGet, "/posts", "", nil), http.StatusOK, &posts)
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %v", posts)
	}

	s.expect(s.do(http.MethodPost, "/posts", "", map[string]string{"text": "hello everyone!"}), http.StatusUnauthorized, nil)

	var errs map[string]string
	s.expect(s.do(http.MethodPost, "/posts", ownerToken, map[string]string{"text": "hi"}), http.StatusBadRequest, &errs)
	if errs["text"] == "" {
		t.Fatalf("expected text error, got %v", errs)
	}

	var post models.Post
	s.expect(s.do(http.MethodPost, "/posts", ownerToken, map[string]string{
		"text": "hello everyone!", "name": "Owner", "avatar": "av",
	}), http.StatusOK, &post)
	if post.UserID != owner.ID || post.Text != "hello everyone!" {
		t.Fatalf("unexpected post %+v", post)
	}

	var raw map[string]json.RawMessage
	s.expect(s.do(http.MethodGet, "/posts/"+post.ID, "", nil), http.StatusOK, &raw)
	if string(raw["likes"]) != "[]" || string(raw["comments"]) != "[]" {
		t.Fatalf("expected empty arrays, got likes=%s comments=%s", raw["likes"], raw["comments"])
	}

	s.expect(s.do(http.MethodGet, "/posts/does-not-exist", "", nil), http.StatusNotFound, &errs)
	if errs["error"] != "No post found with that Id" {
		t.Fatalf("unexpected errors %v", errs)
	}

	// like / unlike
	var liked models.Post
	s.expect(s.do(http.MethodPost, "/posts/like/"+post.ID, otherToken, nil), http.StatusOK, &liked)
	if len(liked.Likes) != 1 {
		t.Fatalf("expected one like, got %+v", liked.Likes)
	}
	s.expect(s.do(http.MethodPost, "/posts/like/"+post.ID, otherToken, nil), http.StatusBadRequest, &errs)
	if errs["error"] != "User already liked this post" {
		t.Fatalf("unexpected errors %v", errs)
	}
	s.expect(s.do(http.MethodPost, "/posts/unlike/"+post.ID, otherToken, nil), http.StatusOK, &liked)
	if len(liked.Likes) != 0 {
		t.Fatalf("expected no likes, got %+v", liked.Likes)
	}
	s.expect(s.do(http.MethodPost, "/posts/unlike/"+post.ID, otherToken, nil), http.StatusBadRequest, &errs)
	if errs["error"] != "User have not liked this post" {
		t.Fatalf("unexpected errors %v", errs)
	}
	s.expect(s.do(http.MethodPost, "/posts/like/missing", otherToken, nil), http.StatusNotFound, nil)

	// comments
	var commented models.Post
	s.expect(s.do(http.MethodPost, "/posts/comment/"+post.ID, otherToken, map[string]string{
		"text": "what a great post",
	}), http.StatusOK, &commented)
	if len(commented.Comments) != 1 {
		t.Fatalf("expected one comment, got %+v", commented.Comments)
	}
	commentID := commented.Comments[0].ID

	s.expect(s.do(http.MethodPost, "/posts/comment/"+post.ID, otherToken, map[string]string{"text": "short"}), http.StatusBadRequest, nil)
	s.expect(s.do(http.MethodPost, "/posts/comment/missing", otherToken, map[string]string{"text": "what a great post"}), http.StatusNotFound, nil)

	s.expect(s.do(http.MethodDelete, "/posts/comment/"+post.ID+"/"+commentID, ownerToken, nil), http.StatusUnauthorized, nil)
	s.expect(s.do(http.MethodDelete, "/posts/comment/"+post.ID+"/not-a-comment", otherToken, nil), http.StatusNotFound, &errs)
	if errs["error"] != "Not found" {
		t.Fatalf("unexpected errors %v", errs)
	}
	s.expect(s.do(http.MethodDelete, "/posts/comment/"+post.ID+"/"+commentID, otherToken, nil), http.StatusOK, &commented)
	if len(commented.Comments) != 0 {
		t.Fatalf("expected comment removed, got %+v", commented.Comments)
	}

	// delete
	s.expect(s.do(http.MethodDelete, "/posts/"+post.ID, otherToken, nil), http.StatusUnauthorized, &errs)
	if errs["error"] != "Unauthorized" {
		t.Fatalf("unexpected errors %v", errs)
	}
	var ok map[string]bool
	s.expect(s.do(http.MethodDelete, "/posts/"+post.ID, ownerToken, nil), http.StatusOK, &ok)
	if !ok["success"] {
		t.Fatalf("expected success")
	}
	s.expect(s.do(http.MethodDelete, "/posts/"+post.ID, ownerToken, nil), http.StatusNotFound, nil)
}

func TestCommentFromAnotherPostIsNotFound(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup("Owner", "owner@x.com")

	var p1, p2 models.Post
	s.expect(s.do(http.MethodPost, "/posts", token, map[string]string{"text": "the first post"}), http.StatusOK, &p1)
	s.expect(s.do(http.MethodPost, "/posts", token, map[string]string{"text": "the second post"}), http.StatusOK, &p2)
	s.expect(s.do(http.MethodPost, "/posts/comment/"+p2.ID, token, map[string]string{"text": "comment on two"}), http.StatusOK, &p2)

	s.expect(s.do(http.MethodDelete, "/posts/comment/"+p1.ID+"/"+p2.Comments[0].ID, token, nil), http.StatusNotFound, nil)

	var posts []models.Post
	s.expect(s.do(http.MethodGet, "/posts", "", nil), http.StatusOK, &posts)
	if len(posts) != 2 || posts[0].ID != p2.ID {
		t.Fatalf("expected newest post first, got %+v", posts)
	}
}

func TestWebSocketReceivesPostEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Round-trip a subscribe so the client is registered before posting.
	if err := conn.WriteJSON(map[string]interface{}{"action": "unsubscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil || msg.Action != "subscribed" {
		t.Fatalf("expected subscribed ack, got %+v %v", msg, err)
	}

	_, token := s.signup("Owner", "owner@x.com")
	s.expect(s.do(http.MethodPost, "/posts", token, map[string]string{"text": "broadcast this post"}), http.StatusOK, nil)

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Action != services.EventPostCreated {
		t.Fatalf("expected %s, got %s", services.EventPostCreated, msg.Action)
	}
}
