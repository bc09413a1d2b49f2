package sdk_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := sdk.NewClient(sdk.UniformEndpoints(sdk.EndpointPair{Primary: "http://a", Secondary: "http://b"}), nil)
	require.Error(t, err)

	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	defer s.Close()
	_, err = sdk.NewClient(sdk.UniformEndpoints(sdk.EndpointPair{Primary: "http://a"}), s)
	require.Error(t, err)
}

func TestLoginLocal(t *testing.T) {
	token := mintToken(t, "alice@example.com", time.Hour)
	secondary := newBackend(t, func(r chi.Router) {
		r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			if body["password"] != "secret" {
				writeJSON(w, http.StatusUnauthorized, `{"error":"Invalid email or password"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"token":"`+token+`","user":{"userId":7,"username":"alice","email":"alice@example.com"}}`)
		})
	})

	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	defer s.Close()
	client := newTestClient(t, sdk.EndpointPair{Primary: deadURL(t), Secondary: secondary.URL}, s)

	t.Run("wrong password", func(t *testing.T) {
		_, err := sdk.LoginLocal(context.Background(), client, "alice@example.com", "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, sdk.ErrAuthenticationRequired)
		assert.Contains(t, err.Error(), "Invalid email or password")
		assert.Equal(t, sdk.LoggedOut, s.State())
	})

	t.Run("success", func(t *testing.T) {
		profile, err := sdk.LoginLocal(context.Background(), client, "alice@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, 7, profile.ID)
		assert.Equal(t, "alice", profile.Username)
		assert.Equal(t, sdk.LoggedInLocal, s.State())

		got, ok := s.Token()
		require.True(t, ok)
		assert.Equal(t, token, got)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := sdk.LoginLocal(context.Background(), client, "", "")
		require.Error(t, err)
	})
}

func TestRegisterLocal(t *testing.T) {
	token := mintToken(t, "new@example.com", time.Hour)
	primary := newBackend(t, func(r chi.Router) {
		r.Post("/api/auth/register", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			if body["email"] == "taken@example.com" {
				writeJSON(w, http.StatusBadRequest, `{"error":"Email already exists"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"token":"`+token+`","user":{"id":9,"username":"`+body["username"]+`","email":"`+body["email"]+`"}}`)
		})
	})

	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	defer s.Close()
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: primary.URL}, s)

	_, err := sdk.RegisterLocal(context.Background(), client, "taken@example.com", "x", "pw")
	require.Error(t, err)
	assert.Equal(t, sdk.KindUpstreamRejected, sdk.KindOf(err))
	assert.Contains(t, err.Error(), "Email already exists")

	profile, err := sdk.RegisterLocal(context.Background(), client, "new@example.com", "newbie", "pw")
	require.NoError(t, err)
	assert.Equal(t, 9, profile.ID)
	assert.Equal(t, sdk.LoggedInLocal, s.State())
}

func TestLoginAdmin(t *testing.T) {
	tests := []struct {
		name        string
		primary     func(t *testing.T) string
		secondary   func(t *testing.T) string
		wantErr     bool
		wantMessage string
	}{
		{
			name:      "success",
			primary:   func(t *testing.T) string { return adminBackend(t, http.StatusOK).URL },
			secondary: deadURL,
		},
		{
			name:        "bad credentials",
			primary:     func(t *testing.T) string { return adminBackend(t, http.StatusUnauthorized).URL },
			secondary:   func(t *testing.T) string { return adminBackend(t, http.StatusUnauthorized).URL },
			wantErr:     true,
			wantMessage: "invalid username or password",
		},
		{
			name:        "server error",
			primary:     deadURL,
			secondary:   func(t *testing.T) string { return adminBackend(t, http.StatusInternalServerError).URL },
			wantErr:     true,
			wantMessage: "server error, please try again later",
		},
		{
			name:        "network",
			primary:     deadURL,
			secondary:   deadURL,
			wantErr:     true,
			wantMessage: "network error, please check your connection to the server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sdk.NewSession(sdk.NewMemoryEnvironment())
			defer s.Close()
			client := newTestClient(t, sdk.EndpointPair{Primary: tt.primary(t), Secondary: tt.secondary(t)}, s)

			err := sdk.LoginAdmin(context.Background(), client, "root", "hunter2", false)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.True(t, s.AdminAuthenticated())
				return
			}
			require.Error(t, err)
			var e *sdk.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.wantMessage, e.Message)
			assert.False(t, s.AdminAuthenticated())
		})
	}
}

func adminBackend(t *testing.T, status int) *backend {
	return newBackend(t, func(r chi.Router) {
		r.Post("/api/admins/login", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, status, `{}`)
		})
	})
}

// adminSession returns a session holding admin credentials root/hunter2.
func adminSession(t *testing.T) *sdk.Session {
	t.Helper()
	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	t.Cleanup(s.Close)
	require.NoError(t, s.AdminLogin("root", "hunter2", false))
	return s
}

func requireAdmin(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "root", user)
	assert.Equal(t, "hunter2", pass)
	assert.Equal(t, "true", r.Header.Get("X-Admin-Request"))
}

func TestClient_AdminRequiresCredentials(t *testing.T) {
	primary := echoBackend(t, http.StatusOK, `[]`, nil)
	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	defer s.Close()
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: primary.URL}, s)

	_, err := client.ListUsers(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, sdk.ErrAuthenticationRequired)
	assert.Equal(t, int32(0), primary.hits.Load())
}

func TestClient_ListUsersWithKeyword(t *testing.T) {
	primary := newBackend(t, func(r chi.Router) {
		r.Get("/api/users", func(w http.ResponseWriter, req *http.Request) {
			requireAdmin(t, req)
			assert.Equal(t, "ali", req.URL.Query().Get("keyword"))
			writeJSON(w, http.StatusOK, `[{"userId":1,"username":"alice","email":"a@x"}]`)
		})
	})
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, adminSession(t))

	users, err := client.ListUsers(context.Background(), "ali")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestClient_CreateMerchandiseMultipart(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	primary := newBackend(t, func(r chi.Router) {
		r.Post("/api/merchandises/create", func(w http.ResponseWriter, req *http.Request) {
			requireAdmin(t, req)
			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Equal(t, "Hoodie", req.FormValue("name"))
			assert.Equal(t, "449.5", req.FormValue("price"))
			assert.Equal(t, "12", req.FormValue("stock"))

			f, hdr, err := req.FormFile("imageFile")
			require.NoError(t, err)
			defer f.Close()
			data, _ := io.ReadAll(f)
			assert.Equal(t, png, data)
			assert.Equal(t, "hoodie.png", hdr.Filename)
			assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
			writeJSON(w, http.StatusOK, `{"id":3}`)
		})
	})
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, adminSession(t))

	err := client.CreateMerchandise(context.Background(),
		sdk.Merchandise{Name: "Hoodie", Description: "Warm", Price: 449.5, Stock: 12},
		&sdk.Image{Filename: "/tmp/hoodie.png", Data: png})
	require.NoError(t, err)
}

func TestClient_CreateEventWithoutImage(t *testing.T) {
	primary := newBackend(t, func(r chi.Router) {
		r.Post("/api/events/create", func(w http.ResponseWriter, req *http.Request) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Equal(t, "Hackathon", req.FormValue("title"))
			assert.Equal(t, "2026-11-20", req.FormValue("eventDate"))
			_, _, err := req.FormFile("imageFile")
			assert.ErrorIs(t, err, http.ErrMissingFile)
			writeJSON(w, http.StatusOK, `{}`)
		})
	})
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, adminSession(t))

	err := client.CreateEvent(context.Background(), sdk.Event{Title: "Hackathon", Location: "Lab 3", EventDate: "2026-11-20"}, nil)
	require.NoError(t, err)
}

func TestClient_DeleteOptimistic(t *testing.T) {
	client := newTestClient(t, sdk.EndpointPair{Primary: deadURL(t), Secondary: deadURL(t)}, adminSession(t))

	outcome, err := client.DeleteOrder(context.Background(), 42, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, sdk.ErrNetworkUnavailable)
	assert.Equal(t, 42, outcome.ID)
	assert.True(t, outcome.Optimistic)
	assert.False(t, outcome.Confirmed)

	outcome, err = client.DeleteOrder(context.Background(), 42, false)
	require.Error(t, err)
	assert.False(t, outcome.Optimistic)
}

func TestClient_DeleteConfirmed(t *testing.T) {
	primary := newBackend(t, func(r chi.Router) {
		r.Delete("/api/users/delete/{id}", func(w http.ResponseWriter, req *http.Request) {
			requireAdmin(t, req)
			assert.Equal(t, "5", chi.URLParam(req, "id"))
			w.WriteHeader(http.StatusNoContent)
		})
	})
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, adminSession(t))

	outcome, err := client.DeleteUser(context.Background(), 5, true)
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed)
}

func TestClient_UpdateOrderStatus(t *testing.T) {
	primary := newBackend(t, func(r chi.Router) {
		r.Post("/api/orders/update/{id}", func(w http.ResponseWriter, req *http.Request) {
			requireAdmin(t, req)
			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "Approved", body["paymentStatus"])
			assert.NotContains(t, body, "orderStatus")
			writeJSON(w, http.StatusOK, `{"orderId":8,"paymentStatus":"Approved","orderStatus":"Processing"}`)
		})
	})
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, adminSession(t))

	order, err := client.UpdateOrderStatus(context.Background(), 8, sdk.PaymentApproved, "")
	require.NoError(t, err)
	assert.Equal(t, "Approved", order.PaymentStatus)

	_, err = client.UpdateOrderStatus(context.Background(), 8, "", "")
	require.Error(t, err)
}

func TestClient_EditOrder(t *testing.T) {
	primary := newBackend(t, func(r chi.Router) {
		r.Put("/api/orders/edit/{id}", func(w http.ResponseWriter, req *http.Request) {
			requireAdmin(t, req)
			assert.Equal(t, "8", chi.URLParam(req, "id"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.EqualValues(t, 7, body["userId"])
			assert.EqualValues(t, 2, body["eventId"])
			assert.EqualValues(t, 150, body["totalAmount"])
			writeJSON(w, http.StatusOK, `{"orderId":8,"totalAmount":150,"event":{"eventId":2,"title":"Gala"}}`)
		})
	})
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, adminSession(t))

	eventID := 2
	order, err := client.EditOrder(context.Background(), 8, sdk.OrderInput{UserID: 7, EventID: &eventID, TotalAmount: 150})
	require.NoError(t, err)
	assert.Equal(t, "Gala", order.Item())

	_, err = client.EditOrder(context.Background(), 8, sdk.OrderInput{TotalAmount: 1})
	require.Error(t, err)
	assert.Equal(t, int32(1), primary.hits.Load())
}

func TestClient_UserScopedCalls(t *testing.T) {
	token := mintToken(t, "alice@example.com", time.Hour)
	receipt := []byte("\xff\xd8\xff\xe0receipt")
	primary := newBackend(t, func(r chi.Router) {
		r.Get("/api/users/current", func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "Bearer "+token, req.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"userId":7,"username":"alice","email":"alice@example.com"}`)
		})
		r.Post("/api/orders/create", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "Pending", body["paymentStatus"])
			assert.EqualValues(t, 3, body["merchandiseId"])
			writeJSON(w, http.StatusOK, `{"orderId":11,"status":"success"}`)
		})
		r.Post("/api/orders/upload-receipt/{id}", func(w http.ResponseWriter, req *http.Request) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			_, _, err := req.FormFile("receiptImage")
			assert.NoError(t, err)
			writeJSON(w, http.StatusOK, `{}`)
		})
		r.Get("/api/orders/receipt-image/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(receipt)
		})
		r.Get("/api/orders/user/{id}", func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "7", chi.URLParam(req, "id"))
			writeJSON(w, http.StatusOK, `[{"orderId":11,"totalAmount":449.5,"merchandise":{"id":3,"name":"Hoodie"}}]`)
		})
	})

	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	defer s.Close()
	require.NoError(t, s.CompleteSSOLogin(token))
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, s)
	ctx := context.Background()

	me, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, me.ID)

	merchID := 3
	id, err := client.CreateOrder(ctx, sdk.OrderInput{UserID: me.ID, MerchandiseID: &merchID, TotalAmount: 449.5})
	require.NoError(t, err)
	assert.Equal(t, 11, id)

	_, err = client.CreateOrder(ctx, sdk.OrderInput{UserID: me.ID})
	require.Error(t, err)

	require.NoError(t, client.UploadReceipt(ctx, id, sdk.Image{Filename: "gcash.jpg", Data: receipt}))

	img, contentType, err := client.ReceiptImage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, receipt, img.Data)

	orders, err := client.ListUserOrders(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Hoodie", orders[0].Item())
}

func TestClient_PublicCatalogue(t *testing.T) {
	primary := newBackend(t, func(r chi.Router) {
		r.Get("/api/merchandises/search", func(w http.ResponseWriter, req *http.Request) {
			assert.Empty(t, req.Header.Get("Authorization"))
			assert.Equal(t, "hood", req.URL.Query().Get("keyword"))
			writeJSON(w, http.StatusOK, `[{"id":3,"name":"Hoodie","price":449.5,"stock":12}]`)
		})
		r.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, `[{"eventId":1,"title":"Hackathon"}]`)
		})
	})
	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	defer s.Close()
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, s)

	items, err := client.SearchMerchandise(context.Background(), "hood")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 12, items[0].Stock)

	events, err := client.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hackathon", events[0].Title)
}

func TestClient_DashboardSummary(t *testing.T) {
	primary := newBackend(t, func(r chi.Router) {
		r.Get("/api/users", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, `[{"userId":1},{"userId":2}]`)
		})
		r.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, `[{"eventId":1}]`)
		})
		r.Get("/api/merchandises", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, `[{"id":1},{"id":2},{"id":3}]`)
		})
		r.Get("/api/orders", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, `[
				{"orderId":1,"paymentStatus":"Pending"},
				{"orderId":2,"paymentStatus":"Verification Needed"},
				{"orderId":3,"paymentStatus":"Approved"}
			]`)
		})
	})
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: deadURL(t)}, adminSession(t))

	summary, err := client.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sdk.DashboardSummary{Users: 2, Events: 1, Merchandise: 3, Orders: 3, PendingPayments: 2}, *summary)
}

func TestClient_DashboardSummaryFailure(t *testing.T) {
	primary := newBackend(t, func(r chi.Router) {
		r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path == "/api/orders" {
				writeJSON(w, http.StatusInternalServerError, `{"error":"db offline"}`)
				return
			}
			writeJSON(w, http.StatusOK, `[]`)
		})
	})
	client := newTestClient(t, sdk.EndpointPair{Primary: primary.URL, Secondary: primary.URL}, adminSession(t))

	_, err := client.DashboardSummary(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db offline")
}

func TestSSOConfig(t *testing.T) {
	cfg := sdk.DefaultSSOConfig("https://hub.example.com/")
	login, err := cfg.SSOLoginURL()
	require.NoError(t, err)
	assert.Equal(t, "https://hub.example.com/login/oauth2/authorization/azure-dev", login)
	logout, err := cfg.SSOLogoutURL()
	require.NoError(t, err)
	assert.Equal(t, "https://hub.example.com/logout", logout)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     string
		wantKind sdk.ErrorKind
	}{
		{name: "token present", raw: "http://127.0.0.1:8765/callback?token=abc.def.ghi", want: "abc.def.ghi"},
		{name: "token missing", raw: "http://127.0.0.1:8765/callback", wantKind: sdk.KindInvalidToken},
		{name: "error reported", raw: "http://127.0.0.1:8765/callback?error=access_denied", wantKind: sdk.KindAuthenticationRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			got, err := sdk.ExtractToken(u)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, sdk.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentials_IsExpired(t *testing.T) {
	assert.False(t, (&sdk.Credentials{Token: mintToken(t, "a", time.Hour)}).IsExpired())
	assert.True(t, (&sdk.Credentials{Token: mintToken(t, "a", -time.Hour)}).IsExpired())
	assert.True(t, (&sdk.Credentials{Token: "garbage"}).IsExpired())
}
