// internal/services/user_sync_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/config"
	"github.com/javajoker/stockcount/internal/database"
	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/models"
)

const maxSyncLimit = 100

// DirectoryUser is one entry of the corporate directory listing.
type DirectoryUser struct {
	Email string `json:"email"`
	Name  struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Login struct {
		UUID string `json:"uuid"`
	} `json:"login"`
}

// UserDirectory lists the people that may be imported as users.
type UserDirectory interface {
	FetchUsers(ctx context.Context, limit int) ([]DirectoryUser, error)
}

type HTTPUserDirectory struct {
	baseURL string
	client  *http.Client
}

func NewHTTPUserDirectory(cfg config.UserSyncConfig) *HTTPUserDirectory {
	return &HTTPUserDirectory{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

func (d *HTTPUserDirectory) FetchUsers(ctx context.Context, limit int) ([]DirectoryUser, error) {
	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid directory url: %w", err)
	}
	q := u.Query()
	q.Set("results", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []DirectoryUser `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}
	return payload.Results, nil
}

type SyncUsersResponse struct {
	UsersCreated int `json:"users_created"`
}

// UserSyncService imports directory people as warehouse managers. They get no
// password and no warehouses until an admin edits them.
type UserSyncService struct {
	db        *gorm.DB
	directory UserDirectory
	limit     int
}

func NewUserSyncService(db *gorm.DB, directory UserDirectory, cfg config.UserSyncConfig) *UserSyncService {
	limit := cfg.Limit
	if limit < 1 || limit > maxSyncLimit {
		limit = maxSyncLimit
	}
	return &UserSyncService{db: db, directory: directory, limit: limit}
}

func (s *UserSyncService) SyncUsers(ctx context.Context) (*SyncUsersResponse, error) {
	entries, err := s.directory.FetchUsers(ctx, s.limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch corporate users")
		return nil, newBusinessError(http.StatusBadGateway, i18n.KeyUserSyncFailed)
	}

	created := 0
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		seen := make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			user := directoryToUser(entry)
			if user == nil {
				continue
			}
			if _, dup := seen[user.Email]; dup {
				continue
			}
			seen[user.Email] = struct{}{}

			var existing int64
			if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if existing > 0 {
				continue
			}
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Count(&existing).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if existing > 0 {
				user.ID = uuid.New()
			}

			if err := tx.Omit("Warehouses").Create(user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", user.Email, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"fetched":       len(entries),
		"users_created": created,
	}).Info("Corporate users synchronized")
	return &SyncUsersResponse{UsersCreated: created}, nil
}

// directoryToUser returns nil for entries without an email.
func directoryToUser(entry DirectoryUser) *models.User {
	email := normalizeEmail(entry.Email)
	if email == "" {
		return nil
	}

	name := strings.TrimSpace(strings.TrimSpace(entry.Name.First) + " " + strings.TrimSpace(entry.Name.Last))
	if name == "" {
		name = "Unknown"
	}

	id, err := uuid.Parse(entry.Login.UUID)
	if err != nil || id == uuid.Nil {
		id = uuid.New()
	}

	user := &models.User{
		Identification: fmt.Sprintf("%08d", rand.Intn(100000000)),
		Name:           name,
		Email:          email,
		Role:           models.RoleWarehouseManager,
		IsActive:       true,
	}
	user.ID = id
	return user
}
