package cmd

import (
	"encoding/json"
	"os"
	"reflect"

	"github.com/dramaplay/dramaplay/constant"
	"github.com/dramaplay/dramaplay/session"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.SetOut(os.Stdout)
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the snapshots written in headless mode",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		lo.Must0(encoder.Encode(snapshotSchema()))
	},
}

var optionalFloat = reflect.TypeOf(mo.Option[float64]{})

func snapshotSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == optionalFloat {
				return &jsonschema.Schema{
					OneOf: []*jsonschema.Schema{{Type: "number"}, {Type: "null"}},
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(&session.Snapshot{})
	schema.Title = constant.Dramaplay + " session snapshot"
	return schema
}
