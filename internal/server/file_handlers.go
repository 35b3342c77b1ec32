package server

import (
	"bytes"
	"context"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/internal/thumbnail"
	"github.com/nimbusdrive/nimbus/pkg/content"
	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/hierarchy"
)

type createFolderRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
}

func (s *Server) handleCreateFolder(c *fiber.Ctx) error {
	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	folder, err := s.hierarchy.CreateFolder(c.Context(), callerID(c), req.Name, req.ParentID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toFileResponse(folder, callerID(c)))
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	userID := callerID(c)
	ctx := c.Context()

	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "a file is required")
	}

	var parentID *uuid.UUID
	if raw := c.FormValue("parent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid parent_id")
		}
		parentID = &id
	}
	if parentID != nil {
		parent, err := s.store.FileForOwner(ctx, *parentID, userID, false)
		if err != nil {
			return err
		}
		if !parent.IsFolder() {
			return drive.InvalidOperation("upload target must be a folder")
		}
	}

	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	// The request body is already bounded by the server's BodyLimit, so
	// buffering here cannot exceed it.
	data := make([]byte, 0, header.Size)
	buf := bytes.NewBuffer(data)
	if _, err := buf.ReadFrom(src); err != nil {
		return err
	}
	size := int64(buf.Len())

	if err := s.quota.Reserve(ctx, userID, size); err != nil {
		return err
	}

	contentID := content.NewID()
	if _, err := s.content.Write(ctx, contentID, bytes.NewReader(buf.Bytes())); err != nil {
		s.rollbackUpload(ctx, userID, size, contentID, "")
		return err
	}

	mime := mimetype.Detect(buf.Bytes()).String()

	var thumbID drive.ContentID
	if thumbnail.Supported(mime) {
		if thumb, err := thumbnail.Generate(bytes.NewReader(buf.Bytes())); err != nil {
			log.Debug().Err(err).Str("name", header.Filename).Msg("thumbnail generation failed")
		} else {
			thumbID = content.NewThumbnailID()
			if _, err := s.content.Write(ctx, thumbID, bytes.NewReader(thumb)); err != nil {
				thumbID = ""
			}
		}
	}

	now := time.Now().UTC()
	item, err := s.store.CreateFile(ctx, &drive.FileItem{
		ID:         uuid.New(),
		Name:       header.Filename,
		Type:       drive.TypeFile,
		Size:       size,
		ParentID:   parentID,
		OwnerID:    userID,
		Content:    contentID,
		MimeType:   mime,
		Thumbnail:  thumbID,
		CreatedAt:  now,
		ModifiedAt: now,
	})
	if err != nil {
		s.rollbackUpload(ctx, userID, size, contentID, thumbID)
		return err
	}

	s.metrics.RecordUpload(size)
	log.Info().
		Stringer("file_id", item.ID).
		Stringer("owner_id", userID).
		Int64("size", size).
		Str("mime_type", mime).
		Msg("file uploaded")
	return c.Status(fiber.StatusCreated).JSON(toFileResponse(item, userID))
}

// rollbackUpload undoes the quota reservation and any stored content
// after a failed upload. Failures here only log: the upload itself has
// already failed and the user should see that error.
func (s *Server) rollbackUpload(ctx context.Context, userID uuid.UUID, size int64, ids ...drive.ContentID) {
	if err := s.quota.Release(ctx, userID, size); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("quota release failed during upload rollback")
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := s.content.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("content_id", string(id)).Msg("content cleanup failed during upload rollback")
		}
	}
}

func (s *Server) handleListFiles(c *fiber.Ctx) error {
	userID := callerID(c)

	folderID, err := optionalUUID(c.Query("folder_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid folder_id")
	}

	folder, items, err := s.hierarchy.FolderContents(c.Context(), userID, folderID)
	if err != nil {
		return err
	}
	trail, err := s.hierarchy.Breadcrumbs(c.Context(), userID, folderID)
	if err != nil {
		return err
	}

	var folderResp *fileResponse
	if folder != nil {
		resp := toFileResponse(folder, userID)
		folderResp = &resp
	}
	return c.JSON(listingResponse{
		Folder:      folderResp,
		Items:       toFileResponses(items, userID),
		Breadcrumbs: toBreadcrumbs(trail),
	})
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	userID := callerID(c)

	query := c.Query("q")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter q is required")
	}

	items, err := s.store.SearchByName(c.Context(), query, userID, searchLimit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": toFileResponses(items, userID)})
}

func (s *Server) handleRecent(c *fiber.Ctx) error {
	userID := callerID(c)
	items, err := s.store.ListRecent(c.Context(), userID, recentLimit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": toFileResponses(items, userID)})
}

func (s *Server) handleStarred(c *fiber.Ctx) error {
	userID := callerID(c)
	items, err := s.store.ListStarred(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": toFileResponses(items, userID)})
}

func (s *Server) handleDownload(c *fiber.Ctx) error {
	userID := callerID(c)

	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	item, err := s.store.FileByID(c.Context(), fileID, userID)
	if err != nil {
		return err
	}
	if item.IsFolder() {
		return drive.InvalidOperation("folders cannot be downloaded")
	}

	rc, err := s.content.Open(c.Context(), item.Content)
	if err != nil {
		return err
	}

	s.metrics.RecordDownload(item.Size)
	c.Set(fiber.HeaderContentType, item.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+item.Name+`"`)
	return c.SendStream(rc, int(item.Size))
}

func (s *Server) handleThumbnail(c *fiber.Ctx) error {
	userID := callerID(c)

	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	item, err := s.store.FileByID(c.Context(), fileID, userID)
	if err != nil {
		return err
	}
	if item.Thumbnail == "" {
		return drive.NotFound("no thumbnail for this file")
	}

	rc, err := s.content.Open(c.Context(), item.Thumbnail)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.SendStream(rc)
}

type updateFileRequest struct {
	Name       *string    `json:"name"`
	ParentID   *uuid.UUID `json:"parent_id"`
	MoveToRoot bool       `json:"move_to_root"`
	IsStarred  *bool      `json:"is_starred"`
}

func (s *Server) handleUpdateFile(c *fiber.Ctx) error {
	userID := callerID(c)

	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	var req updateFileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	update := hierarchy.UpdateRequest{
		Name:    req.Name,
		Starred: req.IsStarred,
	}
	if req.ParentID != nil || req.MoveToRoot {
		update.SetParent = true
		update.ParentID = req.ParentID
	}

	item, err := s.hierarchy.Update(c.Context(), userID, fileID, update)
	if err != nil {
		return err
	}
	return c.JSON(toFileResponse(item, userID))
}

// optionalUUID parses an optional query parameter; empty means nil.
func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
