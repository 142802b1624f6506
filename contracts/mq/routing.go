package mq

// Routing keys 与 aggregate 类型，生产者和消费者共用
const (
	RoutingAccountRegistered = "account.registered"
	RoutingProjectCreated    = "project.created"
	RoutingProjectDeleted    = "project.deleted"
	RoutingTaskCreated       = "task.created"
	RoutingTaskToggled       = "task.toggled"
	RoutingTaskDeleted       = "task.deleted"

	AggregateAccount = "account"
	AggregateProject = "project"
	AggregateTask    = "task"
)
