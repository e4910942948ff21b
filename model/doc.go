// Package model is the declarative model of a service: resources, their
// attributes, access patterns and operations, and the structures derived for
// every operation.
//
// A model is built once, front to back:
//
//	svc, _ := model.NewService(model.ServiceOptions{Name: "people"})
//	person, _ := svc.AddResource(model.ResourceOptions{
//		Name: "person",
//		Attributes: []model.AttributeOptions{
//			{Name: "my-name", Required: true},
//		},
//	})
//	create, _ := person.AddOperation(model.OperationOptions{SubType: model.CreateOne})
//	create.Input().AttributeNames() // [my-name]
//
// Every resource starts with the system attributes id, type, version,
// created-at, updated-at and deleted-at. The composite key layout prepends
// the composed pk, sk and idx key attributes. Attribute order is declaration
// order and is kept by every derived structure.
//
// Errors are returned as typed values naming the resource and attribute at
// fault, e.g. *DuplicateAttributeError. Nothing is recovered; a failed call
// leaves the model as it was before the call.
package model
