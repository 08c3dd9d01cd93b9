package model

// Student is a roster entry. ID is assigned by the document store on first
// persist and is never part of a request body.
type Student struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name" binding:"required"`
	Grade      string `json:"grade" binding:"required"`
	RollNumber string `json:"rollNumber" binding:"required"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
}

// Fields returns the student's stored fields, without the identifier.
func (s Student) Fields() StudentFields {
	return StudentFields{
		Name:       s.Name,
		Grade:      s.Grade,
		RollNumber: s.RollNumber,
		Email:      s.Email,
		Phone:      s.Phone,
		Address:    s.Address,
	}
}

// Apply returns a copy of s with every non-nil patch field overwritten.
func (s Student) Apply(p StudentPatch) Student {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Grade != nil {
		s.Grade = *p.Grade
	}
	if p.RollNumber != nil {
		s.RollNumber = *p.RollNumber
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	return s
}

// StudentFields is the document body stored under /students/{id}.
type StudentFields struct {
	Name       string `json:"name"`
	Grade      string `json:"grade"`
	RollNumber string `json:"rollNumber"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// WithID turns stored fields back into a Student.
func (f StudentFields) WithID(id string) Student {
	return Student{
		ID:         id,
		Name:       f.Name,
		Grade:      f.Grade,
		RollNumber: f.RollNumber,
		Email:      f.Email,
		Phone:      f.Phone,
		Address:    f.Address,
	}
}

// StudentPatch is a partial update. Only non-nil fields are sent to the store.
// Required fields may be omitted but not cleared.
type StudentPatch struct {
	ID         string  `json:"-"`
	Name       *string `json:"name,omitempty" binding:"omitnil,min=1"`
	Grade      *string `json:"grade,omitempty" binding:"omitnil,min=1"`
	RollNumber *string `json:"rollNumber,omitempty" binding:"omitnil,min=1"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p StudentPatch) Empty() bool {
	return p.Name == nil && p.Grade == nil && p.RollNumber == nil &&
		p.Email == nil && p.Phone == nil && p.Address == nil
}
