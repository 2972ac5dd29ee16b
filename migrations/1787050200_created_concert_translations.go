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

		collection := core.NewBaseCollection("concert_translations")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "concert",
				Required:      true,
				CollectionId:  concerts.Id,
				CascadeDelete: true,
				MaxSelect:     1,
			},
			&core.TextField{
				Name:     "locale",
				Required: true,
			},
			&core.TextField{
				Name:     "title",
				Required: true,
			},
			&core.TextField{
				Name: "description",
			},
			&core.TextField{
				Name: "venue",
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

		collection.AddIndex("idx_translations_concert_locale", true, "concert, locale", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("concert_translations")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
