// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serdser contains the serialization and deserialization
// helpers which are shared by all resources. Requests are bound and
// validated by Bind or BindURI, and errors are rendered by SerErr as
// a JSON object having a detail message, or as a map from field names
// to their error messages for validation failures.
package serdser

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/momeni/parklot/pkg/core/cerr"
	"github.com/momeni/parklot/pkg/core/model"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the `plate` and `phone` validation tags to
// the gin-gonic validator and makes validation errors report the json,
// form, or uri names of fields instead of their Go names.
// It may be called multiple times.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator is not a validator/v10")
			return
		}
		v.RegisterTagNameFunc(fieldName)
		registerErr = errors.Join(
			v.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
				return model.ValidatePlate(fl.Field().String()) == nil
			}),
			v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
				return model.ValidatePhone(fl.Field().String()) == nil
			}),
		)
	})
	return registerErr
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Bind deserializes the request into req using the b binding and
// validates it. In case of errors, a 400 response is written and false
// is returned.
func Bind(c *gin.Context, req any, b binding.Binding) bool {
	return check(c, c.ShouldBindWith(req, b))
}

// BindURI is like Bind, but fills req from the path parameters.
func BindURI(c *gin.Context, req any) bool {
	return check(c, c.ShouldBindUri(req))
}

func check(c *gin.Context, err error) bool {
	switch err := err.(type) {
	case nil:
		return true
	case *validator.InvalidValidationError:
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": err.Error(),
		})
	case validator.ValidationErrors:
		var nameToErrs map[string][]string
		for _, ferr := range err {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.JSON(http.StatusBadRequest, nameToErrs)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": err.Error(),
		})
	}
	return false
}

// AddErr appends msgs to the error messages of the name field.
func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	(*errs)[name] = append((*errs)[name], msgs...)
}

// Assert adds msgs for the name field if ok is false.
func Assert(
	errs *map[string][]string, ok bool, name string, msgs ...string,
) bool {
	if !ok {
		AddErr(errs, name, msgs...)
	}
	return ok
}

// SerErr writes the err error as a {"detail": "..."} object. Errors
// which wrap a *cerr.Error use its HTTP status code, while other errors
// are reported as internal server errors.
func SerErr(c *gin.Context, err error) {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		c.JSON(ce.HTTPStatusCode, gin.H{
			"detail": ce.Err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"detail": err.Error(),
	})
}
