package util

import (
	"math"
	"reflect"
)

type Any = interface{}

func IsReallyNil(value Any) bool {
	if value == nil {
		return true
	}
	switch reflect_value := reflect.ValueOf(value); reflect_value.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Ptr,
		reflect.UnsafePointer, reflect.Interface, reflect.Slice:
		return reflect_value.IsNil()
	default:
		return false
	}
}

type ErrorString string

func (self ErrorString) Error() string {
	return string(self)
}

func PanicIfNotNil(value Any) bool {
	if !IsReallyNil(value) {
		panic(value)
	}
	return true
}

func Recover(handler func(issue Any)) {
	if r := recover(); r != nil {
		handler(r)
	}
}

func CeilPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << uint(math.Ceil(math.Log2(float64(x))))
}
