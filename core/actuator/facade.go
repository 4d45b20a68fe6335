// Package actuator drives simple Home Assistant entities (switches, numbers
// and selects) with the same failure reporting as robot commands, without
// preemption or completion tracking.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/core/model"
	"github.com/kilianp07/homemind/infra/logger"
)

var (
	// ErrUnknownActuator is returned for a name that is not configured.
	ErrUnknownActuator = errors.New("unknown actuator")
	// ErrInvalidValue is returned when a value does not fit the actuator.
	ErrInvalidValue = errors.New("invalid value")
)

const (
	msgSet             = "操作成功：%s已设置为%s"
	msgReadback        = "，当前状态：%s"
	msgUnknown         = "未找到设备：%s"
	msgInvalid         = "参数无效：%v"
	msgRejectedStatus  = "指令发送失败，状态码：%d"
	msgTransportFailed = "操作失败，请检查设备是否在线或重试"
	msgState           = "%s当前状态：%s"
	msgQueryFailed     = "查询失败，请检查设备是否在线"
)

var (
	onValues  = map[string]bool{"on": true, "true": true, "1": true, "开": true, "打开": true, "开启": true}
	offValues = map[string]bool{"off": true, "false": true, "0": true, "关": true, "关闭": true, "关掉": true}
)

// Facade sends state changes to configured actuators.
type Facade struct {
	api       homeassistant.API
	actuators map[string]Config
	sink      metrics.MetricsSink
	log       logger.Logger
}

// Option configures a Facade.
type Option func(*Facade)

// WithMetricsSink records every command on sinks implementing
// metrics.ActuatorRecorder.
func WithMetricsSink(s metrics.MetricsSink) Option { return func(f *Facade) { f.sink = s } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(f *Facade) { f.log = l } }

// New validates cfgs and returns a facade over api.
func New(api homeassistant.API, cfgs []Config, opts ...Option) (*Facade, error) {
	if err := ValidateAll(cfgs); err != nil {
		return nil, err
	}
	f := &Facade{api: api, actuators: make(map[string]Config, len(cfgs)), sink: metrics.NopSink{}, log: logger.NopLogger{}}
	for _, c := range cfgs {
		f.actuators[c.Name] = c
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// List returns the configured actuators sorted by name.
func (f *Facade) List() []Config {
	out := make([]Config, 0, len(f.actuators))
	for _, c := range f.actuators {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetState applies value to the actuator called name. Exactly one service
// call is made when the value is valid.
func (f *Facade) SetState(ctx context.Context, name, value string) model.ActuatorOutcome {
	cfg, ok := f.actuators[name]
	if !ok {
		return model.ActuatorOutcome{
			Message: fmt.Sprintf(msgUnknown, name),
			Err:     fmt.Errorf("%w: %s", ErrUnknownActuator, name),
		}
	}
	out := model.ActuatorOutcome{Entity: cfg.EntityID}
	domain, service, data, err := command(cfg, strings.TrimSpace(value))
	if err != nil {
		out.Message = fmt.Sprintf(msgInvalid, err)
		out.Err = err
		f.record(cfg, value, out)
		return out
	}

	if err := f.api.CallService(ctx, domain, service, data); err != nil {
		code, ok := homeassistant.StatusCode(err)
		if ok {
			out.StatusCode = code
			out.Message = fmt.Sprintf(msgRejectedStatus, code)
		} else {
			out.Message = msgTransportFailed
		}
		out.Err = err
		f.log.Errorf("actuator %s: %s/%s failed: %v", name, domain, service, err)
		f.record(cfg, value, out)
		return out
	}

	out.Success = true
	out.Message = fmt.Sprintf(msgSet, name, value)
	if cfg.FollowUp != "" {
		domain, _, _ := strings.Cut(cfg.FollowUp, ".")
		if err := f.api.CallService(ctx, domain, "turn_on", map[string]any{"entity_id": cfg.FollowUp}); err != nil {
			f.log.Warnf("actuator %s: follow-up %s failed: %v", name, cfg.FollowUp, err)
		}
	}
	if cfg.ReadbackEntity != "" {
		if ent, err := f.api.GetState(ctx, cfg.ReadbackEntity); err != nil {
			f.log.Warnf("actuator %s: read-back of %s failed: %v", name, cfg.ReadbackEntity, err)
		} else {
			out.State = ent.State
			out.Message += fmt.Sprintf(msgReadback, ent.State)
		}
	}
	f.log.Infof("actuator %s set to %s", name, value)
	f.record(cfg, value, out)
	return out
}

// State reads the current state of the actuator called name. The read-back
// entity is preferred when one is configured.
func (f *Facade) State(ctx context.Context, name string) model.ActuatorOutcome {
	cfg, ok := f.actuators[name]
	if !ok {
		return model.ActuatorOutcome{
			Message: fmt.Sprintf(msgUnknown, name),
			Err:     fmt.Errorf("%w: %s", ErrUnknownActuator, name),
		}
	}
	entity := cfg.EntityID
	if cfg.ReadbackEntity != "" {
		entity = cfg.ReadbackEntity
	}
	out := model.ActuatorOutcome{Entity: entity}
	ent, err := f.api.GetState(ctx, entity)
	if err != nil {
		f.log.Warnf("actuator %s: read %s failed: %v", name, entity, err)
		if code, ok := homeassistant.StatusCode(err); ok {
			out.StatusCode = code
		}
		out.Message = msgQueryFailed
		out.Err = err
		return out
	}
	out.Success = true
	out.State = ent.State
	out.Message = fmt.Sprintf(msgState, name, ent.State)
	return out
}

func command(cfg Config, value string) (domain, service string, data map[string]any, err error) {
	data = map[string]any{"entity_id": cfg.EntityID}
	switch cfg.Kind {
	case KindSwitch:
		v := strings.ToLower(value)
		switch {
		case onValues[v]:
			return cfg.Domain(), "turn_on", data, nil
		case offValues[v]:
			return cfg.Domain(), "turn_off", data, nil
		}
		return "", "", nil, fmt.Errorf("%w: %q is neither on nor off", ErrInvalidValue, value)
	case KindNumber:
		n, named := cfg.Values[value]
		if !named {
			var perr error
			n, perr = strconv.ParseFloat(value, 64)
			if perr != nil {
				return "", "", nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, value)
			}
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return "", "", nil, fmt.Errorf("%w: %q is not a finite number", ErrInvalidValue, value)
			}
		}
		if cfg.HasRange() && (n < cfg.Min || n > cfg.Max) {
			return "", "", nil, fmt.Errorf("%w: %v outside %v-%v", ErrInvalidValue, n, cfg.Min, cfg.Max)
		}
		data["value"] = n
		return cfg.Domain(), "set_value", data, nil
	case KindSelect:
		if len(cfg.Options) > 0 && !contains(cfg.Options, value) {
			return "", "", nil, fmt.Errorf("%w: %q not in %s", ErrInvalidValue, value, strings.Join(cfg.Options, "/"))
		}
		data["option"] = value
		return cfg.Domain(), "select_option", data, nil
	}
	return "", "", nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidValue, cfg.Kind)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (f *Facade) record(cfg Config, value string, out model.ActuatorOutcome) {
	rec, ok := f.sink.(metrics.ActuatorRecorder)
	if !ok {
		return
	}
	if err := rec.RecordActuator(metrics.ActuatorRecord{
		Name:       cfg.Name,
		Entity:     cfg.EntityID,
		Kind:       string(cfg.Kind),
		Value:      value,
		Success:    out.Success,
		StatusCode: out.StatusCode,
		Time:       time.Now(),
	}); err != nil {
		f.log.Warnf("record actuator metrics: %v", err)
	}
}
