package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("support_reports")

		collection.Fields.Add(
			&core.TextField{
				Name: "user",
			},
			&core.TextField{
				Name: "category",
			},
			&core.EmailField{
				Name:     "email",
				Required: true,
			},
			&core.TextField{
				Name:     "message",
				Required: true,
				Max:      4000,
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				Values:    []string{"open", "resolved"},
				MaxSelect: 1,
			},
			&core.BoolField{
				Name: "live",
			},
			&core.BoolField{
				Name: "ever_live",
			},
			&core.BoolField{
				Name: "window_open",
			},
			&core.BoolField{
				Name: "purchased",
			},
			&core.DateField{
				Name: "resolved_at",
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

		collection.AddIndex("idx_support_status_created", false, "status, created", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("support_reports")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
