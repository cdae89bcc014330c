package service

import (
	"time"

	"github.com/timmy/dietsupport/internal/domain"
)

// Reconciliation is the result of applying a delta to a prior snapshot.
type Reconciliation struct {
	// Snapshot is the new fridge contents.
	Snapshot domain.FridgeSnapshot
	// Consumed are the removed foods that were actually in the prior snapshot.
	Consumed []domain.FoodItem
}

// Reconcile applies delta to prior. Prior foods whose name appears in delta.Remove are
// dropped, then delta.Add is appended as-is. Only removals naming a prior food count as
// consumed. Names are compared exactly and duplicates are kept.
func Reconcile(prior domain.FridgeSnapshot, delta domain.FridgeDelta) Reconciliation {
	removed := make(map[string]struct{}, len(delta.Remove))
	for _, f := range delta.Remove {
		removed[f.Name] = struct{}{}
	}
	present := make(map[string]struct{}, len(prior.Foods))
	for _, f := range prior.Foods {
		present[f.Name] = struct{}{}
	}

	foods := make([]domain.FoodItem, 0, len(prior.Foods)+len(delta.Add))
	for _, f := range prior.Foods {
		if _, ok := removed[f.Name]; !ok {
			foods = append(foods, f)
		}
	}
	foods = append(foods, delta.Add...)

	consumed := make([]domain.FoodItem, 0, len(delta.Remove))
	for _, f := range delta.Remove {
		if _, ok := present[f.Name]; ok {
			consumed = append(consumed, f)
		}
	}

	return Reconciliation{
		Snapshot: domain.FridgeSnapshot{Foods: foods},
		Consumed: consumed,
	}
}

// IntakeEvents turns the consumed foods into calorie intake rows stamped at.
func (r Reconciliation) IntakeEvents(userID string, at time.Time) []domain.CalorieIntake {
	events := make([]domain.CalorieIntake, 0, len(r.Consumed))
	for _, f := range r.Consumed {
		events = append(events, domain.CalorieIntake{
			UserID:  userID,
			Food:    f.Name,
			Calorie: f.Calories,
			Date:    at,
		})
	}
	return events
}
