package mapx

type Person struct {
	Name  string
	Email string
}

type Team struct {
	Name    string
	Owner   *Person
	Members []Person
	Scores  []int
}

type Schedulable struct {
	ID         int
	Name       string
	ObjectType string
}

type Event struct {
	Schedulable
	Location string
}

type Task struct {
	Schedulable
	Status string
}

func newMapTarget() any { return map[string]any{} }

// personSchema registers Person with an email_only role.
func personSchema(r *Registry) *Schema {
	return r.Define("Person").
		Type(TypeOf[Person]()).
		Field("name", String(Required())).
		Field("email", Email()).
		Role("email_only", []string{"email"}).
		MustBuild()
}

// schedulableSchemas registers the Schedulable hierarchy.
func schedulableSchemas(r *Registry, allowMarshal bool) (base, event, task *Schema) {
	base = r.Define("Schedulable").
		Type(TypeOf[Schedulable]()).
		Field("id", Integer()).
		Field("name", String()).
		Field("object_type", String()).
		Role("summary", []string{"name"}).
		PolymorphicOn("object_type").
		AllowPolymorphicMarshal(allowMarshal).
		MustBuild()
	event = r.Define("Event").
		Extends(base).
		Type(TypeOf[Event]()).
		Field("location", String()).
		PolymorphicName("event").
		MustBuild()
	task = r.Define("Task").
		Extends(base).
		Type(TypeOf[Task]()).
		Field("status", String(Choices("open", "done"))).
		PolymorphicName("task").
		MustBuild()
	return base, event, task
}
