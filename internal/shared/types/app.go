package types

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strconv"

	"github.com/GriffinCanCode/appsync/internal/shared/id"
)

// AppEndpoint is the fixed remote path both the record and the registry sync against
const AppEndpoint = "/app"

// Attribute keys with dedicated fields on App
const (
	KeyID   = "id"
	KeyUUID = "uuid"
	KeyName = "name"
)

// App represents one app entity as reported by the server.
// Fields without a dedicated struct field are kept in Attributes.
type App struct {
	ID         id.AppID
	UUID       string
	Name       string
	Attributes map[string]any
}

// IsNew reports whether the app has never been assigned a server identifier
func (a App) IsNew() bool {
	return a.ID.IsZero()
}

// Get returns the attribute stored under key
func (a App) Get(key string) (any, bool) {
	switch key {
	case KeyID:
		return a.ID, !a.ID.IsZero()
	case KeyUUID:
		return a.UUID, a.UUID != ""
	case KeyName:
		return a.Name, a.Name != ""
	}
	v, ok := a.Attributes[key]
	return v, ok
}

// Set stores value under key, routing known keys to their typed fields
func (a *App) Set(key string, value any) error {
	switch key {
	case KeyID:
		switch v := value.(type) {
		case id.AppID:
			a.ID = v
		case string:
			a.ID = id.AppID(v)
		case int:
			a.ID = id.AppID(strconv.Itoa(v))
		case int64:
			a.ID = id.AppID(strconv.FormatInt(v, 10))
		case json.Number:
			a.ID = id.AppID(v.String())
		default:
			return fmt.Errorf("id must be a string or integer, got %T", value)
		}
	case KeyUUID, KeyName:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s must be a string, got %T", key, value)
		}
		if key == KeyUUID {
			a.UUID = s
		} else {
			a.Name = s
		}
	default:
		if a.Attributes == nil {
			a.Attributes = make(map[string]any)
		}
		a.Attributes[key] = value
	}
	return nil
}

// Merge copies every populated field of other onto a. Server values win.
func (a *App) Merge(other App) {
	if !other.ID.IsZero() {
		a.ID = other.ID
	}
	if other.UUID != "" {
		a.UUID = other.UUID
	}
	if other.Name != "" {
		a.Name = other.Name
	}
	if len(other.Attributes) > 0 {
		if a.Attributes == nil {
			a.Attributes = make(map[string]any, len(other.Attributes))
		}
		maps.Copy(a.Attributes, other.Attributes)
	}
}

// Clone returns a copy that shares no map with a
func (a App) Clone() App {
	out := a
	if a.Attributes != nil {
		out.Attributes = maps.Clone(a.Attributes)
	}
	return out
}

// Equal compares two apps field by field
func (a App) Equal(other App) bool {
	if a.ID != other.ID || a.UUID != other.UUID || a.Name != other.Name {
		return false
	}
	if len(a.Attributes) == 0 && len(other.Attributes) == 0 {
		return true
	}
	return reflect.DeepEqual(a.Attributes, other.Attributes)
}

// MarshalJSON flattens Attributes next to the typed fields
func (a App) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Attributes)+3)
	maps.Copy(out, a.Attributes)
	if !a.ID.IsZero() {
		out[KeyID] = a.ID
	}
	if a.UUID != "" {
		out[KeyUUID] = a.UUID
	}
	if a.Name != "" {
		out[KeyName] = a.Name
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an entity object, keeping unknown fields in Attributes
func (a *App) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("app must be a JSON object: %w", err)
	}

	var decoded App
	for key, value := range raw {
		switch key {
		case KeyID:
			if err := json.Unmarshal(value, &decoded.ID); err != nil {
				return err
			}
		case KeyUUID, KeyName:
			var s *string
			if err := json.Unmarshal(value, &s); err != nil {
				return fmt.Errorf("%s must be a string: %w", key, err)
			}
			if s != nil {
				_ = decoded.Set(key, *s)
			}
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("attribute %s: %w", key, err)
			}
			if decoded.Attributes == nil {
				decoded.Attributes = make(map[string]any)
			}
			decoded.Attributes[key] = v
		}
	}

	*a = decoded
	return nil
}
