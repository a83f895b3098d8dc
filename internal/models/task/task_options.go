package task

// Patch - частичное обновление, nil поле означает "не менять"
type Patch struct {
	Name        *string
	Description *string
	Status      *Status
}

type PatchOption func(*Patch)

func WithName(name string) PatchOption {
	return func(p *Patch) {
		p.Name = &name
	}
}

func WithDescription(description string) PatchOption {
	return func(p *Patch) {
		p.Description = &description
	}
}

func WithStatus(status Status) PatchOption {
	return func(p *Patch) {
		p.Status = &status
	}
}

func NewPatch(options ...PatchOption) Patch {
	var p Patch
	for _, opt := range options {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil
}

// Apply накладывает заданные поля на задачу
func (p Patch) Apply(t *Task) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}
