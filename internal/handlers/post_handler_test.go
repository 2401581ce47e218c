package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawaz1711/vibelog-pro/internal/models"
)

func (e *testEnv) createPost(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()

	post := models.Post{
		AuthorID:    author.ID,
		Title:       title,
		Content:     "some content",
		Type:        models.PostTypeBlog,
		Category:    "tech",
		IsPublished: true,
	}
	require.NoError(t, e.DB.Create(&post).Error)
	return &post
}

func TestCreateAndGetPost(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "alice", models.RoleCreator)

	resp := env.request(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title":    "Hello",
		"content":  "First post",
		"type":     "blog",
		"category": "tech",
		"tags":     []string{"go", "fiber"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	postID := data["id"].(string)

	resp = env.request(t, http.MethodGet, "/api/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetPostIncrementsViews(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)
	post := env.createPost(t, alice, "Views")

	for i := 0; i < 3; i++ {
		resp := env.request(t, http.MethodGet, "/api/posts/"+post.ID.String(), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var stored models.Post
	require.NoError(t, env.DB.First(&stored, "id = ?", post.ID).Error)
	assert.Equal(t, int64(3), stored.Views)
}

func TestListPostsFiltersUnpublished(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)

	env.createPost(t, alice, "published")
	draft := models.Post{
		AuthorID:    alice.ID,
		Title:       "draft",
		Content:     "wip",
		IsPublished: false,
	}
	require.NoError(t, env.DB.Create(&draft).Error)

	resp := env.request(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "published", first["title"])
}

func TestLikeToggle(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)
	_, bobToken := env.createUser(t, "bob", models.RoleClient)
	post := env.createPost(t, alice, "Likeable")

	resp := env.request(t, http.MethodPost, "/api/posts/"+post.ID.String()+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["liked"])
	assert.Len(t, data["likes"].([]interface{}), 1)

	// author gets notified
	var notif models.Notification
	require.NoError(t, env.DB.First(&notif, "recipient_id = ? AND type = ?", alice.ID, models.NotifLike).Error)

	// second like toggles it off
	resp = env.request(t, http.MethodPost, "/api/posts/"+post.ID.String()+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, false, data["liked"])
	assert.Len(t, data["likes"].([]interface{}), 0)

	var count int64
	env.DB.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSelfLikeDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice", models.RoleCreator)
	post := env.createPost(t, alice, "Own post")

	resp := env.request(t, http.MethodPost, "/api/posts/"+post.ID.String()+"/like", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	env.DB.Model(&models.Notification{}).Where("recipient_id = ?", alice.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)
	_, bobToken := env.createUser(t, "bob", models.RoleCreator)
	post := env.createPost(t, alice, "Original")

	resp := env.request(t, http.MethodPut, "/api/posts/"+post.ID.String(), bobToken, map[string]interface{}{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeletePostCascades(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice", models.RoleCreator)
	bob, bobToken := env.createUser(t, "bob", models.RoleClient)
	post := env.createPost(t, alice, "Doomed")

	resp := env.request(t, http.MethodPost, "/api/posts/"+post.ID.String()+"/comment", bobToken, map[string]interface{}{
		"text": "nice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = env.request(t, http.MethodPost, "/api/posts/"+post.ID.String()+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodDelete, "/api/posts/"+post.ID.String(), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var comments, likes int64
	env.DB.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments)
	env.DB.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likes)
	assert.Equal(t, int64(0), comments)
	assert.Equal(t, int64(0), likes)
	_ = bob
}

func TestTrendingOrdersByLikes(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)
	bob, bobToken := env.createUser(t, "bob", models.RoleClient)
	carol, carolToken := env.createUser(t, "carol", models.RoleClient)

	quiet := env.createPost(t, alice, "quiet")
	popular := env.createPost(t, alice, "popular")

	for _, token := range []string{bobToken, carolToken} {
		resp := env.request(t, http.MethodPost, "/api/posts/"+popular.ID.String()+"/like", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := env.request(t, http.MethodGet, "/api/posts/trending", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].([]interface{})
	require.GreaterOrEqual(t, len(data), 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "popular", first["title"])
	_, _, _ = quiet, bob, carol
}

func TestCommentNotifiesAuthor(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)
	_, bobToken := env.createUser(t, "bob", models.RoleClient)
	post := env.createPost(t, alice, "Discussable")

	resp := env.request(t, http.MethodPost, "/api/posts/"+post.ID.String()+"/comment", bobToken, map[string]interface{}{
		"text": "great write-up",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var notif models.Notification
	require.NoError(t, env.DB.First(&notif, "recipient_id = ? AND type = ?", alice.ID, models.NotifComment).Error)
	assert.Contains(t, notif.Message, "commented")
}
