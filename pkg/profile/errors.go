package profile

import "fmt"

// ValidationError reports a profiles.yml document that is not well-formed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ProfileNotFoundError reports an operation on a profile that does not
// exist.
type ProfileNotFoundError struct {
	Name string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found", e.Name)
}

// ProfileExistsError reports an add of a profile name already in use.
type ProfileExistsError struct {
	Name string
}

func (e *ProfileExistsError) Error() string {
	return fmt.Sprintf("profile %q already exists", e.Name)
}

// OutputNotFoundError reports an operation on an output that does not
// exist within a profile.
type OutputNotFoundError struct {
	Profile string
	Output  string
}

func (e *OutputNotFoundError) Error() string {
	return fmt.Sprintf("output %q not found in profile %q", e.Output, e.Profile)
}

// OutputExistsError reports an add of an output name already in use
// within a profile.
type OutputExistsError struct {
	Profile string
	Output  string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("output %q already exists in profile %q", e.Output, e.Profile)
}

// TargetInUseError reports a delete of the output a profile's target
// currently points at. The target must be reassigned first.
type TargetInUseError struct {
	Profile string
	Output  string
}

func (e *TargetInUseError) Error() string {
	return fmt.Sprintf("output %q is the current target of profile %q; set a different target before deleting it", e.Output, e.Profile)
}
