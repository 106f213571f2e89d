package gym_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mMando123/gym-management/internal/auth"
	"github.com/mMando123/gym-management/internal/clock"
	"github.com/mMando123/gym-management/internal/notifier"
	"github.com/mMando123/gym-management/internal/plan"
	"github.com/mMando123/gym-management/internal/pricing"
	"github.com/mMando123/gym-management/internal/reward"
	"github.com/mMando123/gym-management/internal/subscription"
)

func TestSubscriptionHandler_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	database := setupTestDB(t)
	defer database.Close()

	cleanDatabase(t, database)

	memberID := createTestMember(t, database, "handler@test.com", "Handler Member")
	sportID := createTestSport(t, database, "Tennis")
	planID := createTestPlan(t, database, sportID, 10000)

	token, err := auth.GenerateAccessToken(memberID, "handler@test.com", auth.RoleMember, "test-secret")
	require.NoError(t, err)

	ledger := reward.NewRepository(database)
	repo := subscription.NewRepository(database, ledger)
	calc := pricing.NewCalculator(map[string]float64{"WELCOME10": 10})
	service := subscription.NewService(repo, plan.NewRepository(database), calc, notifier.Noop{}, clock.New(), true)
	handler := subscription.NewHandler(service)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(auth.AuthMiddleware("test-secret"))
	router.POST("/subscriptions", handler.Create)
	router.GET("/subscriptions", handler.ListMine)
	router.POST("/subscriptions/:id/freeze", handler.Freeze)

	body, _ := json.Marshal(subscription.CreateSubscriptionRequest{
		PlanID:        planID,
		SportIDs:      []int{sportID},
		PaymentMethod: "cash",
	})

	req := httptest.NewRequest("POST", "/subscriptions", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created subscription.SubscriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	// Cash payment activates immediately under the default policy
	assert.Equal(t, subscription.StatusActive, created.Subscription.Status)
	assert.Equal(t, int64(10000), created.Quote.OriginalCents)
	assert.Equal(t, int64(9000), created.Quote.FinalCents)

	// Freeze through the handler
	freezeBody, _ := json.Marshal(subscription.FreezeRequest{Days: 3, Reason: "travel"})
	req = httptest.NewRequest("POST",
		fmt.Sprintf("/subscriptions/%d/freeze", created.Subscription.ID), bytes.NewReader(freezeBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Another member cannot see or touch this subscription
	otherID := createTestMember(t, database, "other@test.com", "Other Member")
	otherToken, err := auth.GenerateAccessToken(otherID, "other@test.com", auth.RoleMember, "test-secret")
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var list []subscription.Subscription
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}
