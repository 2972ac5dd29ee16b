package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("concerts")

		collection.Fields.Add(
			&core.TextField{
				Name:     "title",
				Required: true,
			},
			&core.DateField{
				Name:     "start_time",
				Required: true,
			},
			&core.BoolField{
				Name: "published",
			},
			&core.NumberField{
				Name: "price",
			},
			&core.TextField{
				Name: "product_ref",
			},
			&core.TextField{
				Name: "price_ref",
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

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("concerts")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
