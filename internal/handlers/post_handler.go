package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
	"github.com/nawaz1711/vibelog-pro/internal/services/notify"
)

type PostHandler struct {
	DB       *gorm.DB
	Notifier *notify.Notifier
}

func NewPostHandler(db *gorm.DB, notifier *notify.Notifier) *PostHandler {
	return &PostHandler{DB: db, Notifier: notifier}
}

type CreatePostReq struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Type       string   `json:"type"` // blog | vlog
	Tags       []string `json:"tags"`
	Category   string   `json:"category"`
	CoverImage string   `json:"cover_image"`
}

func authorMini(u *models.User) fiber.Map {
	if u == nil {
		return nil
	}
	return fiber.Map{
		"id":          u.ID,
		"name":        u.Name,
		"profile_pic": u.ProfilePic,
		"bio":         u.Bio,
	}
}

func (h *PostHandler) postPayload(p *models.Post, likeIDs []string) fiber.Map {
	if likeIDs == nil {
		likeIDs = []string{}
	}
	return fiber.Map{
		"id":           p.ID,
		"author_id":    p.AuthorID,
		"author":       authorMini(p.Author),
		"title":        p.Title,
		"content":      p.Content,
		"type":         p.Type,
		"cover_image":  p.CoverImage,
		"tags":         p.Tags,
		"category":     p.Category,
		"likes":        likeIDs,
		"like_count":   len(likeIDs),
		"views":        p.Views,
		"shares":       p.Shares,
		"is_published": p.IsPublished,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
}

// likeIDsByPost loads like user ids for a set of posts in one query.
func (h *PostHandler) likeIDsByPost(postIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var likes []models.PostLike
	if err := h.DB.Where("post_id IN ?", postIDs).Find(&likes).Error; err != nil {
		return nil, err
	}
	for _, l := range likes {
		out[l.PostID] = append(out[l.PostID], l.UserID.String())
	}
	return out, nil
}

func (h *PostHandler) List(c *fiber.Ctx) error {
	category := c.Query("category")
	tag := strings.ToLower(c.Query("tag"))
	postType := c.Query("type")

	q := h.DB.Preload("Author").
		Where("is_published = ?", true).
		Order("created_at DESC").
		Limit(50)

	if category != "" {
		q = q.Where("category = ?", category)
	}
	if postType != "" {
		q = q.Where("type = ?", postType)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch posts",
		})
	}

	// tags live in a JSON column, filter in memory after the query
	if tag != "" {
		filtered := posts[:0]
		for _, p := range posts {
			var tags []string
			if len(p.Tags) > 0 {
				_ = json.Unmarshal(p.Tags, &tags)
			}
			for _, t := range tags {
				if strings.ToLower(t) == tag {
					filtered = append(filtered, p)
					break
				}
			}
		}
		posts = filtered
	}

	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	likesByPost, err := h.likeIDsByPost(ids)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch posts",
		})
	}

	out := make([]fiber.Map, 0, len(posts))
	for i := range posts {
		out = append(out, h.postPayload(&posts[i], likesByPost[posts[i].ID]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

func (h *PostHandler) Trending(c *fiber.Ctx) error {
	// trending = most liked and viewed posts of the last 7 days
	weekAgo := time.Now().Add(-7 * 24 * time.Hour)

	type Result struct {
		models.Post
		LikeCount int64
	}

	var rows []Result
	if err := h.DB.Table("posts").
		Select("posts.*, (SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = posts.id) AS like_count").
		Where("is_published = ? AND created_at >= ?", true, weekAgo).
		Order("like_count DESC, views DESC").
		Limit(10).
		Scan(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch trending posts",
		})
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Post.ID)
	}
	likesByPost, err := h.likeIDsByPost(ids)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch trending posts",
		})
	}

	out := make([]fiber.Map, 0, len(rows))
	for i := range rows {
		var author models.User
		if err := h.DB.First(&author, "id = ?", rows[i].Post.AuthorID).Error; err == nil {
			rows[i].Post.Author = &author
		}
		out = append(out, h.postPayload(&rows[i].Post, likesByPost[rows[i].Post.ID]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var req CreatePostReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Title and content are required",
		})
	}

	postType := models.PostTypeBlog
	if req.Type == string(models.PostTypeVlog) {
		postType = models.PostTypeVlog
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	post := models.Post{
		AuthorID:    uid,
		Title:       req.Title,
		Content:     req.Content,
		Type:        postType,
		Tags:        datatypes.JSON(tagsJSON),
		Category:    req.Category,
		CoverImage:  req.CoverImage,
		IsPublished: true,
	}

	if err := h.DB.Create(&post).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create post",
		})
	}

	var author models.User
	if err := h.DB.First(&author, "id = ?", uid).Error; err == nil {
		post.Author = &author
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    h.postPayload(&post, nil),
	})
}

func (h *PostHandler) GetOne(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid post ID",
		})
	}

	// every read counts one view
	h.DB.Model(&models.Post{}).Where("id = ?", postID).
		Update("views", gorm.Expr("views + 1"))

	var post models.Post
	if err := h.DB.Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.User").
		First(&post, "id = ?", postID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Post not found",
		})
	}

	likesByPost, err := h.likeIDsByPost([]uuid.UUID{post.ID})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch post",
		})
	}

	payload := h.postPayload(&post, likesByPost[post.ID])

	comments := make([]fiber.Map, 0, len(post.Comments))
	for i := range post.Comments {
		cm := &post.Comments[i]
		comments = append(comments, fiber.Map{
			"id":         cm.ID,
			"post_id":    cm.PostID,
			"user":       authorMini(cm.User),
			"text":       cm.Text,
			"replies":    cm.Replies,
			"created_at": cm.CreatedAt,
		})
	}
	payload["comments"] = comments

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payload,
	})
}

type UpdatePostReq struct {
	Title       *string  `json:"title"`
	Content     *string  `json:"content"`
	Type        *string  `json:"type"`
	Tags        []string `json:"tags"`
	Category    *string  `json:"category"`
	CoverImage  *string  `json:"cover_image"`
	IsPublished *bool    `json:"is_published"`
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid post ID",
		})
	}

	var post models.Post
	if err := h.DB.First(&post, "id = ?", postID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Post not found",
		})
	}

	if post.AuthorID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to update this post",
		})
	}

	var req UpdatePostReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		post.Title = *req.Title
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) != "" {
		post.Content = *req.Content
	}
	if req.Type != nil && (*req.Type == string(models.PostTypeBlog) || *req.Type == string(models.PostTypeVlog)) {
		post.Type = models.PostType(*req.Type)
	}
	if req.Tags != nil {
		b, _ := json.Marshal(req.Tags)
		post.Tags = datatypes.JSON(b)
	}
	if req.Category != nil {
		post.Category = *req.Category
	}
	if req.CoverImage != nil {
		post.CoverImage = *req.CoverImage
	}
	if req.IsPublished != nil {
		post.IsPublished = *req.IsPublished
	}

	if err := h.DB.Save(&post).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update post",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.postPayload(&post, nil),
	})
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid post ID",
		})
	}

	var post models.Post
	if err := h.DB.First(&post, "id = ?", postID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Post not found",
		})
	}

	if post.AuthorID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to delete this post",
		})
	}

	// comments and likes go with the post
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete post",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Post deleted",
	})
}

// Like toggles: liking an already-liked post unlikes it.
func (h *PostHandler) Like(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid post ID",
		})
	}

	var post models.Post
	if err := h.DB.First(&post, "id = ?", postID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Post not found",
		})
	}

	var existing models.PostLike
	err = h.DB.Where("post_id = ? AND user_id = ?", postID, uid).First(&existing).Error

	if err == nil {
		if err := h.DB.Delete(&existing).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to unlike post",
			})
		}

		likesByPost, _ := h.likeIDsByPost([]uuid.UUID{postID})
		likes := likesByPost[postID]
		if likes == nil {
			likes = []string{}
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Post unliked",
			"data":    fiber.Map{"liked": false, "likes": likes},
		})
	}
	if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}

	like := models.PostLike{PostID: postID, UserID: uid}
	if err := h.DB.Create(&like).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to like post",
		})
	}

	if post.AuthorID != uid {
		var liker models.User
		_ = h.DB.First(&liker, "id = ?", uid).Error
		_ = h.Notifier.Notify(&models.Notification{
			RecipientID:  post.AuthorID,
			SenderID:     &uid,
			Type:         models.NotifLike,
			Title:        "New like",
			Message:      liker.Name + " liked your post",
			RelatedModel: "Post",
			RelatedID:    &post.ID,
			ActionURL:    "/blog/" + post.ID.String(),
		})
	}

	likesByPost, _ := h.likeIDsByPost([]uuid.UUID{postID})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Post liked",
		"data":    fiber.Map{"liked": true, "likes": likesByPost[postID]},
	})
}

type AddCommentReq struct {
	Text string `json:"text"`
}

func (h *PostHandler) AddComment(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid post ID",
		})
	}

	var post models.Post
	if err := h.DB.First(&post, "id = ?", postID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Post not found",
		})
	}

	var req AddCommentReq
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Comment text is required",
		})
	}

	comment := models.Comment{
		PostID: postID,
		UserID: uid,
		Text:   strings.TrimSpace(req.Text),
	}

	if err := h.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to add comment",
		})
	}

	if post.AuthorID != uid {
		var commenter models.User
		_ = h.DB.First(&commenter, "id = ?", uid).Error
		_ = h.Notifier.Notify(&models.Notification{
			RecipientID:  post.AuthorID,
			SenderID:     &uid,
			Type:         models.NotifComment,
			Title:        "New comment",
			Message:      commenter.Name + " commented on your post",
			RelatedModel: "Post",
			RelatedID:    &post.ID,
			ActionURL:    "/blog/" + post.ID.String(),
		})
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", uid).Error; err == nil {
		comment.User = &user
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":         comment.ID,
			"post_id":    comment.PostID,
			"user":       authorMini(comment.User),
			"text":       comment.Text,
			"created_at": comment.CreatedAt,
		},
	})
}
