package synth

import (
	"encoding/json"
	"os"
)

type presetMetaJSON struct {
	Name string `json:"name"`
}
type presetMetaListJSON struct {
	Items []presetMetaJSON `json:"items"`
}
type presetMeta struct {
	name string
}
type presetData struct {
	list []*presetMeta
}

// presetManager loads and stores whole parameter sets as JSON files in
// dir. A preset holds the same document that params.toJSON produces.
type presetManager struct {
	dir  string
	data *presetData
}

func newPresetManager(dir string) *presetManager {
	return &presetManager{
		dir: dir,
	}
}

func (pm *presetManager) getList() ([]*presetMeta, error) {
	if pm.data == nil {
		if err := pm.loadData(); err != nil {
			return nil, err
		}
	}
	return pm.data.list, nil
}
func (pm *presetManager) applyToParams(name string, target *params) error {
	path := pm.dir + "/" + name + ".json"
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	target.applyJSON(bytes)
	return nil
}
func (pm *presetManager) saveFromParams(name string, source *params) error {
	if err := os.MkdirAll(pm.dir, 0o755); err != nil {
		return err
	}
	path := pm.dir + "/" + name + ".json"
	if err := os.WriteFile(path, source.toJSON(), 0o644); err != nil {
		return err
	}
	return pm.addToList(name)
}
func (pm *presetManager) addToList(name string) error {
	if pm.data == nil {
		if err := pm.loadData(); err != nil {
			pm.data = &presetData{}
		}
	}
	for _, meta := range pm.data.list {
		if meta.name == name {
			return nil
		}
	}
	pm.data.list = append(pm.data.list, &presetMeta{name: name})
	return pm.saveList()
}
func (pm *presetManager) saveList() error {
	items := make([]presetMetaJSON, len(pm.data.list))
	for i, meta := range pm.data.list {
		items[i] = presetMetaJSON{Name: meta.name}
	}
	bytes, err := json.MarshalIndent(&presetMetaListJSON{Items: items}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(pm.dir+"/_list.json", bytes, 0o644)
}
func (pm *presetManager) loadData() error {
	path := pm.dir + "/_list.json"
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	metaListJSON := &presetMetaListJSON{}
	err = json.Unmarshal(bytes, &metaListJSON)
	if err != nil {
		return err
	}
	list := make([]*presetMeta, len(metaListJSON.Items))
	for i, item := range metaListJSON.Items {
		list[i] = &presetMeta{name: item.Name}
	}
	pm.data = &presetData{list: list}
	return nil
}
