package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		concerts, err := app.FindCollectionByNameOrId("concerts")
		if err != nil {
			return err
		}

		return app.Save(ticketsCollection(users, concerts))
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}

func ticketsCollection(users, concerts *core.Collection) *core.Collection {
	collection := core.NewBaseCollection("tickets")

	collection.Fields.Add(
		// no cascade: entitlement rows outlive their user and concert
		&core.RelationField{
			Name:         "user",
			Required:     true,
			CollectionId: users.Id,
			MaxSelect:    1,
		},
		&core.RelationField{
			Name:         "concert",
			Required:     true,
			CollectionId: concerts.Id,
			MaxSelect:    1,
		},
		&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"pending", "paid"},
			MaxSelect: 1,
		},
		&core.TextField{
			Name: "session_id",
		},
		&core.TextField{
			Name: "transaction_id",
		},
		&core.NumberField{
			Name: "amount",
		},
		&core.DateField{
			Name: "paid_at",
		},
		&core.AutodateField{
			Name:     "created",
			OnCreate: true,
		},
		&core.AutodateField{
			Name:     "updated",
			OnCreate: true,
			OnUpdate: true,
		},
	)

	// one ticket per user per concert
	collection.AddIndex("idx_tickets_user_concert", true, "user, concert", "")

	return collection
}
