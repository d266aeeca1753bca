package dictionary

import "fmt"

// Place is a region known to the job platform.
type Place struct {
	ID   int    `json:"id"`
	Name string `json:"f_places_name"`
}

// Regions indexes places by id and by name.
type Regions struct {
	places []Place
	byID   map[int]string
	byName map[string]int
}

func NewRegions(places []Place) *Regions {
	r := &Regions{
		byID:   make(map[int]string, len(places)),
		byName: make(map[string]int, len(places)),
	}

	for _, p := range places {
		if p.ID <= 0 || p.Name == "" {
			continue
		}
		if _, ok := r.byID[p.ID]; ok {
			continue
		}
		r.byID[p.ID] = p.Name
		if _, ok := r.byName[normalize(p.Name)]; !ok {
			r.byName[normalize(p.Name)] = p.ID
		}
		r.places = append(r.places, p)
	}

	return r
}

// Name returns the region name for id.
func (r *Regions) Name(id int) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.byID[id]
	return name, ok
}

// Label returns the region name or a synthetic "Область <id>" when the id is unknown.
func (r *Regions) Label(id int) string {
	if name, ok := r.Name(id); ok {
		return name
	}
	return fmt.Sprintf("Область %d", id)
}

// ID finds a region by its full name, ignoring case and extra spaces.
func (r *Regions) ID(name string) (int, bool) {
	if r == nil {
		return 0, false
	}
	key := normalize(name)
	if key == "" {
		return 0, false
	}
	id, ok := r.byName[key]
	return id, ok
}

func (r *Regions) Places() []Place {
	if r == nil {
		return nil
	}
	out := make([]Place, len(r.places))
	copy(out, r.places)
	return out
}

func (r *Regions) Len() int {
	if r == nil {
		return 0
	}
	return len(r.places)
}
