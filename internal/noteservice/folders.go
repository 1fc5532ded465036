package noteservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/sse"
)

// ListFolders returns the child folders of parentID ("" for the root).
func (s *Service) ListFolders(ctx context.Context, parentID string) ([]models.Folder, error) {
	return s.repo.ListFolders(ctx, parentID)
}

// CreateFolder adds a folder at the end of its parent.
func (s *Service) CreateFolder(ctx context.Context, parentID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", apperr.ErrInvalid)
	}
	if err := s.checkFolder(ctx, parentID); err != nil {
		return nil, err
	}
	siblings, err := s.repo.ListFolders(ctx, parentID)
	if err != nil {
		return nil, err
	}
	key, err := s.placeFolder(ctx, folderSiblings(siblings, ""), Position{})
	if err != nil {
		return nil, err
	}
	f := &models.Folder{ID: s.newID(), ParentID: parentID, Name: name, Order: key, CreatedAt: s.now()}
	if err := s.repo.CreateFolder(ctx, f); err != nil {
		return nil, err
	}
	s.folderChanged(f.ID)
	return f, nil
}

// RenameFolder changes a folder's name.
func (s *Service) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", apperr.ErrInvalid)
	}
	f, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Name = name
	if err := s.repo.UpdateFolder(ctx, f); err != nil {
		return nil, err
	}
	s.folderChanged(f.ID)
	return f, nil
}

// MoveFolder places a folder under parentID between the given siblings. A
// folder cannot be moved into itself or one of its descendants.
func (s *Service) MoveFolder(ctx context.Context, id, parentID string, pos Position) (*models.Folder, error) {
	f, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, parentID); err != nil {
		return nil, err
	}
	for p := parentID; p != ""; {
		if p == id {
			return nil, fmt.Errorf("%w: folder %s cannot contain itself", apperr.ErrInvalid, id)
		}
		parent, err := s.repo.GetFolder(ctx, p)
		if err != nil {
			return nil, err
		}
		p = parent.ParentID
	}
	all, err := s.repo.ListFolders(ctx, parentID)
	if err != nil {
		return nil, err
	}
	key, err := s.placeFolder(ctx, folderSiblings(all, id), pos)
	if err != nil {
		return nil, err
	}
	f.ParentID, f.Order = parentID, key
	if err := s.repo.UpdateFolder(ctx, f); err != nil {
		return nil, err
	}
	s.folderChanged(f.ID)
	return f, nil
}

// DeleteFolder removes an empty folder.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	if err := s.repo.DeleteFolder(ctx, id); err != nil {
		return err
	}
	s.folderChanged(id)
	return nil
}

// placeFolder returns the order key for pos among siblings, saving the
// siblings first when they had to be rebalanced.
func (s *Service) placeFolder(ctx context.Context, siblings []sibling, pos Position) (float64, error) {
	key, rebalanced, err := place(siblings, pos)
	if err != nil {
		return 0, err
	}
	for i, k := range rebalanced {
		o, err := s.repo.GetFolder(ctx, siblings[i].id)
		if err != nil {
			return 0, err
		}
		o.Order = k
		if err := s.repo.UpdateFolder(ctx, o); err != nil {
			return 0, err
		}
	}
	return key, nil
}

func (s *Service) folderChanged(id string) {
	s.notifier.Notify(sse.FolderChanged, map[string]string{"id": id})
}

func folderSiblings(folders []models.Folder, skip string) []sibling {
	out := make([]sibling, 0, len(folders))
	for _, f := range folders {
		if f.ID != skip {
			out = append(out, sibling{id: f.ID, key: f.Order})
		}
	}
	return out
}
