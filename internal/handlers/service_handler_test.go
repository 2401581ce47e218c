package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/nawaz1711/vibelog-pro/internal/models"
)

func (e *testEnv) createService(t *testing.T, creator *models.User, title string, prices ...int64) *models.Service {
	t.Helper()

	tiers := make([]models.PriceTier, 0, len(prices))
	names := []string{"basic", "standard", "premium"}
	for i, p := range prices {
		name := fmt.Sprintf("tier-%d", i)
		if i < len(names) {
			name = names[i]
		}
		tiers = append(tiers, models.PriceTier{Name: name, Price: p, DeliveryDays: 3 + i, Revisions: 1 + i})
	}
	b, err := json.Marshal(tiers)
	require.NoError(t, err)

	svc := models.Service{
		CreatorID: creator.ID,
		Title:     title,
		Category:  "design",
		Tiers:     datatypes.JSON(b),
		IsActive:  true,
	}
	require.NoError(t, e.DB.Create(&svc).Error)
	return &svc
}

func serviceTitles(t *testing.T, resp *http.Response) []string {
	t.Helper()

	body := decodeBody(t, resp)
	data := body["data"].([]interface{})
	titles := make([]string, 0, len(data))
	for _, item := range data {
		titles = append(titles, item.(map[string]interface{})["title"].(string))
	}
	return titles
}

func TestServicePriceRangeFilter(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)

	env.createService(t, alice, "cheap", 1000, 2000)
	env.createService(t, alice, "mid", 5000, 9000)
	env.createService(t, alice, "expensive", 20000, 50000)

	// the [min,max] of the tier prices must intersect the requested bound
	resp := env.request(t, http.MethodGet, "/api/services?min_price=3000&max_price=10000", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"mid"}, serviceTitles(t, resp))

	// a bound inside a service's range still matches
	resp = env.request(t, http.MethodGet, "/api/services?min_price=6000&max_price=7000", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"mid"}, serviceTitles(t, resp))

	// open-ended min
	resp = env.request(t, http.MethodGet, "/api/services?min_price=15000", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"expensive"}, serviceTitles(t, resp))
}

func TestServiceTextAndCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)

	env.createService(t, alice, "Logo Design", 1000)
	other := env.createService(t, alice, "Copywriting", 1000)
	other.Category = "writing"
	require.NoError(t, env.DB.Save(other).Error)

	resp := env.request(t, http.MethodGet, "/api/services?q=logo", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Logo Design"}, serviceTitles(t, resp))

	resp = env.request(t, http.MethodGet, "/api/services?category=writing", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Copywriting"}, serviceTitles(t, resp))
}

func TestServicePagination(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)

	for i := 0; i < 5; i++ {
		env.createService(t, alice, fmt.Sprintf("svc-%d", i), 1000)
	}

	resp := env.request(t, http.MethodGet, "/api/services?page=2&limit=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].([]interface{})
	assert.Len(t, data, 2)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(5), pagination["total"])
	assert.Equal(t, float64(3), pagination["pages"])
}

func TestCreateServiceRequiresCreatorRole(t *testing.T) {
	env := newTestEnv(t)
	_, clientToken := env.createUser(t, "bob", models.RoleClient)

	resp := env.request(t, http.MethodPost, "/api/services", clientToken, map[string]interface{}{
		"title":    "Sneaky",
		"category": "design",
		"tiers":    []map[string]interface{}{{"name": "basic", "price": 100}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateServiceCreatorOnly(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)
	_, bobToken := env.createUser(t, "bob", models.RoleCreator)
	svc := env.createService(t, alice, "Mine", 1000)

	resp := env.request(t, http.MethodPut, "/api/services/"+svc.ID.String(), bobToken, map[string]interface{}{
		"title": "Stolen",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAddReviewRecomputesRating(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)
	svc := env.createService(t, alice, "Rated", 1000)

	ratings := []int{4, 5, 3}
	for i, r := range ratings {
		_, token := env.createUser(t, fmt.Sprintf("client-%d", i), models.RoleClient)
		resp := env.request(t, http.MethodPost, "/api/services/"+svc.ID.String()+"/reviews", token, map[string]interface{}{
			"rating":  r,
			"comment": "ok",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var stored models.Service
	require.NoError(t, env.DB.First(&stored, "id = ?", svc.ID).Error)
	assert.InDelta(t, 4.0, stored.Rating, 0.0001)
	assert.Equal(t, int64(3), stored.TotalReviews)

	// the creator gets a notification per review
	var count int64
	env.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", alice.ID, models.NotifReviewReceived).
		Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestCreatorCannotReviewOwnService(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice", models.RoleCreator)
	svc := env.createService(t, alice, "Mine", 1000)

	resp := env.request(t, http.MethodPost, "/api/services/"+svc.ID.String()+"/reviews", aliceToken, map[string]interface{}{
		"rating": 5,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReviewRatingBounds(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)
	_, bobToken := env.createUser(t, "bob", models.RoleClient)
	svc := env.createService(t, alice, "Bounded", 1000)

	for _, bad := range []int{0, 6, -1} {
		resp := env.request(t, http.MethodPost, "/api/services/"+svc.ID.String()+"/reviews", bobToken, map[string]interface{}{
			"rating": bad,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestFeaturedServices(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.createUser(t, "alice", models.RoleCreator)

	featured := env.createService(t, alice, "Shiny", 1000)
	featured.Featured = true
	featured.Rating = 4.5
	require.NoError(t, env.DB.Save(featured).Error)
	env.createService(t, alice, "Plain", 1000)

	resp := env.request(t, http.MethodGet, "/api/services/featured", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Shiny"}, serviceTitles(t, resp))
}
