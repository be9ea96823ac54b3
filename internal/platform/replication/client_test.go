package replication

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
)

func sample() *domain.Booking {
	return &domain.Booking{
		ID:              "ABC123DEF456",
		CustomerName:    "Ann",
		CustomerContact: "ann@example.com",
		Date:            "2025-06-02",
		Time:            "10:00",
		Duration1:       60,
		Duration:        60,
		NumberOfDogs:    1,
		TubsUsed:        []int{2},
		Status:          domain.BookingConfirmed,
	}
}

func TestPush_SendsRemoteShape(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	require.NoError(t, c.Push(context.Background(), sample()))

	assert.Equal(t, "Ann", got["customer_name"])
	assert.Equal(t, "ann@example.com", got["customer_contact"])
	assert.Equal(t, "2025-06-02", got["date"])
	assert.Equal(t, "10:00", got["time"])
	assert.Equal(t, float64(60), got["duration"])
	assert.Equal(t, float64(1), got["number_of_dogs"])
	assert.Equal(t, []interface{}{float64(2)}, got["tubs_used"])
	assert.Equal(t, "confirmed", got["status"])
	assert.NotContains(t, got, "_id")
}

func TestPush_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Push(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestPush_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, NewClient(url, time.Second).Push(context.Background(), sample()))
}

func TestList_EncodesDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-06-02", r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id":"x1","customer_name":"ann","customer_contact":"ANN@example.com","date":"2025-06-02","time":"10:00","duration":60,"number_of_dogs":1,"tubs_used":[2],"status":"confirmed"}]`))
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL, time.Second).List(context.Background(), ListOptions{Date: "2025-06-02"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "x1", list[0].ID)
	assert.True(t, list[0].Same(sample()))
}
