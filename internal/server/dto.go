package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/quota"
)

// userResponse is the public view of an account.
type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	StorageUsed  int64 `json:"storage_used"`
	StorageLimit int64 `json:"storage_limit"`
}

func toUserResponse(u *drive.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		CreatedAt:    u.CreatedAt,
		StorageUsed:  u.StorageUsed,
		StorageLimit: u.StorageLimit,
	}
}

// fileResponse is the public view of a file or folder, decorated with
// its display appearance and the viewer's effective rights.
type fileResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Size       int64      `json:"size"`
	ParentID   *uuid.UUID `json:"parent_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	MimeType   string     `json:"mime_type,omitempty"`
	Icon       string     `json:"icon"`
	Color      string     `json:"color"`
	IsStarred  bool       `json:"is_starred"`
	IsTrashed  bool       `json:"is_trashed"`
	TrashedAt  *time.Time `json:"trashed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`

	HasThumbnail bool `json:"has_thumbnail"`
	CanEdit      bool `json:"can_edit"`
}

func toFileResponse(item *drive.FileItem, viewerID uuid.UUID) fileResponse {
	appearance := drive.AppearanceFor(item.MimeType, item.Type)
	return fileResponse{
		ID:           item.ID,
		Name:         item.Name,
		Type:         string(item.Type),
		Size:         item.Size,
		ParentID:     item.ParentID,
		OwnerID:      item.OwnerID,
		MimeType:     item.MimeType,
		Icon:         appearance.Icon,
		Color:        appearance.Color,
		IsStarred:    item.IsStarred,
		IsTrashed:    item.IsTrashed,
		TrashedAt:    item.TrashedAt,
		CreatedAt:    item.CreatedAt,
		ModifiedAt:   item.ModifiedAt,
		HasThumbnail: item.Thumbnail != "",
		CanEdit:      drive.CanEdit(item, viewerID),
	}
}

func toFileResponses(items []*drive.FileItem, viewerID uuid.UUID) []fileResponse {
	out := make([]fileResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toFileResponse(item, viewerID))
	}
	return out
}

// breadcrumbResponse is one entry of a navigation trail. A nil ID marks
// the root.
type breadcrumbResponse struct {
	ID   *uuid.UUID `json:"id"`
	Name string     `json:"name"`
}

func toBreadcrumbs(trail []drive.Breadcrumb) []breadcrumbResponse {
	out := make([]breadcrumbResponse, 0, len(trail))
	for _, crumb := range trail {
		out = append(out, breadcrumbResponse{ID: crumb.ID, Name: crumb.Name})
	}
	return out
}

// listingResponse carries a folder's own metadata (null for the virtual
// root), its items, and its breadcrumb trail.
type listingResponse struct {
	Folder      *fileResponse        `json:"folder"`
	Items       []fileResponse       `json:"items"`
	Breadcrumbs []breadcrumbResponse `json:"breadcrumbs"`
}

// sessionResponse is returned by register and login.
type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// meResponse pairs the account with its storage usage.
type meResponse struct {
	User  userResponse `json:"user"`
	Usage quota.Usage  `json:"usage"`
}
