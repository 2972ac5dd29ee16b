package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		concerts, err := app.FindCollectionByNameOrId("concerts")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("program_pieces")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "concert",
				Required:      true,
				CollectionId:  concerts.Id,
				CascadeDelete: true,
				MaxSelect:     1,
			},
			&core.NumberField{
				Name: "position",
			},
			&core.TextField{
				Name: "composer",
			},
			&core.TextField{
				Name:     "work",
				Required: true,
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

		collection.AddIndex("idx_program_concert_position", false, "concert, position", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("program_pieces")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
