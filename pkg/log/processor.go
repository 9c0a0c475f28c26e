package log

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mwantia/fabric/pkg/container"
)

const tagName = "fabric"

// LoggerTagProcessor handles fabric:"logger" and fabric:"logger:<name>" tags.
//
// Supported tag formats:
//   - `fabric:"logger"` injects the registered LoggerService
//   - `fabric:"logger:<name>"` injects LoggerService.Named(name)
type LoggerTagProcessor struct{}

func NewLoggerTagProcessor() *LoggerTagProcessor {
	return &LoggerTagProcessor{}
}

// GetPriority runs before the default inject processor (priority 0)
func (ltp *LoggerTagProcessor) GetPriority() int {
	return 50
}

// CanProcess matches "logger" and "logger:<name>" case-insensitively
func (ltp *LoggerTagProcessor) CanProcess(value string) bool {
	return strings.EqualFold(value, "logger") || strings.HasPrefix(strings.ToLower(value), "logger:")
}

// Process resolves the LoggerService from the container and names it if the tag carries a name
func (ltp *LoggerTagProcessor) Process(ctx context.Context, sc *container.ServiceContainer, field reflect.StructField, value string) (any, error) {
	ok, resolved := sc.ResolveByType(ctx, reflect.TypeOf((*LoggerService)(nil)).Elem())
	if !ok {
		return nil, fmt.Errorf("failed to resolve LoggerService for field '%s': no logger service registered", field.Name)
	}

	base, ok := resolved.(LoggerService)
	if !ok {
		return nil, fmt.Errorf("resolved logger is not a LoggerService for field '%s'", field.Name)
	}

	if _, name, found := strings.Cut(value, ":"); found {
		if name = strings.TrimSpace(name); name != "" {
			return base.Named(name), nil
		}
	}

	return base, nil
}

// Inject walks the exported fields of the struct pointed to by target and
// assigns a logger to every field tagged for this processor.
func (ltp *LoggerTagProcessor) Inject(ctx context.Context, sc *container.ServiceContainer, target any) error {
	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("inject target must be a pointer to a struct, got %T", target)
	}

	elem := value.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Type().Field(i)
		tag, ok := field.Tag.Lookup(tagName)
		if !ok || !ltp.CanProcess(tag) {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("field '%s' is tagged for logger injection but not exported", field.Name)
		}

		resolved, err := ltp.Process(ctx, sc, field, tag)
		if err != nil {
			return err
		}

		injected := reflect.ValueOf(resolved)
		if !injected.Type().AssignableTo(field.Type) {
			return fmt.Errorf("logger is not assignable to field '%s' of type %s", field.Name, field.Type)
		}
		elem.Field(i).Set(injected)
	}

	return nil
}
