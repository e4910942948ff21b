package model

import "fmt"

// AttributeType is the semantic type of an attribute.
type AttributeType string

const (
	TypeGuid      AttributeType = "Guid"
	TypeString    AttributeType = "String"
	TypeInt       AttributeType = "Int"
	TypeFloat     AttributeType = "Float"
	TypeBoolean   AttributeType = "Boolean"
	TypeDate      AttributeType = "Date"
	TypeTime      AttributeType = "Time"
	TypeDateTime  AttributeType = "DateTime"
	TypeTimestamp AttributeType = "Timestamp"
	TypeEmail     AttributeType = "Email"
	TypeJson      AttributeType = "Json"
	TypePhone     AttributeType = "Phone"
	TypeUrl       AttributeType = "Url"
	TypeIpAddress AttributeType = "IpAddress"
	TypeArray     AttributeType = "Array"
	TypeMap       AttributeType = "Map"
	TypeCount     AttributeType = "Count"
	TypeAverage   AttributeType = "Average"
	TypeSum       AttributeType = "Sum"
)

// AttributeTypes lists every supported semantic type.
var AttributeTypes = []AttributeType{
	TypeGuid, TypeString, TypeInt, TypeFloat, TypeBoolean, TypeDate, TypeTime,
	TypeDateTime, TypeTimestamp, TypeEmail, TypeJson, TypePhone, TypeUrl,
	TypeIpAddress, TypeArray, TypeMap, TypeCount, TypeAverage, TypeSum,
}

// StorageType is the physical DynamoDB attribute value type.
// Values are the AttributeValue type descriptors.
type StorageType string

const (
	StorageString  StorageType = "S"
	StorageNumber  StorageType = "N"
	StorageBoolean StorageType = "BOOL"
	StorageList    StorageType = "L"
	StorageMap     StorageType = "M"
)

// InterfaceType is the type an attribute has in generated interfaces.
type InterfaceType string

const (
	InterfaceString  InterfaceType = "string"
	InterfaceNumber  InterfaceType = "number"
	InterfaceBoolean InterfaceType = "boolean"
	InterfaceArray   InterfaceType = "array"
	InterfaceRecord  InterfaceType = "record"
)

// StorageType resolves the physical storage type.
func (t AttributeType) StorageType() (StorageType, error) {
	switch t {
	case TypeGuid, TypeString, TypeDate, TypeTime, TypeDateTime,
		TypeEmail, TypePhone, TypeUrl, TypeIpAddress:
		return StorageString, nil
	case TypeInt, TypeFloat, TypeTimestamp, TypeCount, TypeAverage, TypeSum:
		return StorageNumber, nil
	case TypeBoolean:
		return StorageBoolean, nil
	case TypeArray:
		return StorageList, nil
	case TypeJson, TypeMap:
		return StorageMap, nil
	}
	return "", &UnknownAttributeTypeError{Type: t}
}

// InterfaceType resolves the generated interface type.
func (t AttributeType) InterfaceType() (InterfaceType, error) {
	st, err := t.StorageType()
	if err != nil {
		return "", err
	}
	switch st {
	case StorageString:
		return InterfaceString, nil
	case StorageNumber:
		return InterfaceNumber, nil
	case StorageBoolean:
		return InterfaceBoolean, nil
	case StorageList:
		return InterfaceArray, nil
	case StorageMap:
		return InterfaceRecord, nil
	}
	panic(fmt.Sprintf("unhandled storage type %q", st))
}

// TypeScriptType returns the TypeScript spelling of the interface type.
func (t AttributeType) TypeScriptType() (string, error) {
	it, err := t.InterfaceType()
	if err != nil {
		return "", err
	}
	switch it {
	case InterfaceArray:
		return "Array<any>", nil
	case InterfaceRecord:
		return "Record<string, any>", nil
	}
	return string(it), nil
}

// IsKeyType reports whether values of this type may be used in a DynamoDB key.
func (t AttributeType) IsKeyType() bool {
	st, err := t.StorageType()
	return err == nil && (st == StorageString || st == StorageNumber)
}
