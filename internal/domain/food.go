package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidFoodList is returned when a food list or delta does not match its schema.
var ErrInvalidFoodList = errors.New("invalid food list")

var validate = validator.New(validator.WithRequiredStructEnabled())

// FoodItem is one food believed to be in a fridge. Name is its identity within a snapshot.
type FoodItem struct {
	Name     string  `json:"name" validate:"required"`
	Calories float64 `json:"calories" validate:"gte=0"`
}

// FridgeSnapshot is the believed full contents of a user's fridge at one point in time.
type FridgeSnapshot struct {
	Foods []FoodItem `json:"foods" validate:"required,dive"`
}

// FridgeDelta is the add/remove difference between two consecutive fridge photos.
type FridgeDelta struct {
	Add    []FoodItem `json:"add" validate:"required,dive"`
	Remove []FoodItem `json:"remove" validate:"required,dive"`
}

// DecodeSnapshot parses and validates a serialized snapshot.
func DecodeSnapshot(data []byte) (FridgeSnapshot, error) {
	var s FridgeSnapshot
	if err := decodeValidated(data, &s); err != nil {
		return FridgeSnapshot{}, err
	}
	return s, nil
}

// DecodeDelta parses and validates a serialized delta.
func DecodeDelta(data []byte) (FridgeDelta, error) {
	var d FridgeDelta
	if err := decodeValidated(data, &d); err != nil {
		return FridgeDelta{}, err
	}
	return d, nil
}

func decodeValidated(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty content", ErrInvalidFoodList)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFoodList, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFoodList, err)
	}
	return nil
}

// Text returns the JSON text form of the snapshot, as stored and as shown to the oracle.
func (s FridgeSnapshot) Text() string {
	b, _ := json.Marshal(s.normalized())
	return string(b)
}

// normalized replaces a nil food list so it serializes as [] rather than null.
func (s FridgeSnapshot) normalized() FridgeSnapshot {
	if s.Foods == nil {
		return FridgeSnapshot{Foods: []FoodItem{}}
	}
	return s
}

// Value implements the driver.Valuer interface for database serialization.
func (s FridgeSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(s.normalized())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface. Stored snapshots are validated on every read.
func (s *FridgeSnapshot) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		return fmt.Errorf("%w: null snapshot", ErrInvalidFoodList)
	default:
		return errors.New("failed to scan FridgeSnapshot")
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}
