package badger

import (
	"encoding/json"
	"fmt"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// Records are stored as JSON. The schema is small and stable, and JSON
// keeps the database debuggable with standard tooling; a binary codec
// would save bytes without buying anything at drive-metadata sizes.

func encodeUser(user *drive.User) ([]byte, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	return data, nil
}

func decodeUser(data []byte) (*drive.User, error) {
	var user drive.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

func encodeFile(item *drive.FileItem) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file item: %w", err)
	}
	return data, nil
}

func decodeFile(data []byte) (*drive.FileItem, error) {
	var item drive.FileItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to decode file item: %w", err)
	}
	return &item, nil
}
