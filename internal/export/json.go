package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revwatch/internal/model"
)

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(report), "export: encode json")
}

// WriteJSONFile writes the JSON rendering to a file.
func WriteJSONFile(path string, report *model.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create json file")
	}
	defer f.Close()

	return WriteJSON(f, report)
}
