package handler

import (
	"math"
	"strings"
	"time"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func field(req *structpb.Struct, key string) (*structpb.Value, bool) {
	v, ok := req.GetFields()[key]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func optionalString(req *structpb.Struct, key string) (*string, error) {
	v, ok := field(req, key)
	if !ok {
		return nil, nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a string", key)
	}
	value := s.StringValue
	return &value, nil
}

func stringField(req *structpb.Struct, key string) (string, error) {
	p, err := optionalString(req, key)
	if err != nil || p == nil {
		return "", err
	}
	return *p, nil
}

func requiredString(req *structpb.Struct, key string) (string, error) {
	s, err := stringField(req, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return s, nil
}

func optionalBool(req *structpb.Struct, key string) (*bool, error) {
	v, ok := field(req, key)
	if !ok {
		return nil, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a bool", key)
	}
	value := b.BoolValue
	return &value, nil
}

func intField(req *structpb.Struct, key string) (int, error) {
	v, ok := field(req, key)
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int(n.NumberValue), nil
}

// durationField は "24h" や "90m" 形式の文字列を time.Duration に変換します。
func durationField(req *structpb.Struct, key string) (time.Duration, error) {
	s, err := stringField(req, key)
	if err != nil || s == "" {
		return 0, err
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	return d, nil
}

// tagsField は tags を読み取ります。要素は "name" 文字列か {"name", "multiplier"} です。
// 2 つ目の戻り値は tags が指定されたかどうかです。
func tagsField(req *structpb.Struct) ([]person.Tag, bool, error) {
	v, ok := field(req, "tags")
	if !ok {
		return nil, false, nil
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, false, status.Error(codes.InvalidArgument, "tags must be a list")
	}

	tags := make([]person.Tag, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		t, err := toDomainTag(item)
		if err != nil {
			return nil, false, err
		}
		tags = append(tags, t)
	}
	return tags, true, nil
}

func toDomainTag(v *structpb.Value) (person.Tag, error) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return person.NewTag(kind.StringValue)
	case *structpb.Value_StructValue:
		name, err := stringField(kind.StructValue, "name")
		if err != nil {
			return person.Tag{}, err
		}
		raw, ok := field(kind.StructValue, "multiplier")
		if !ok {
			return person.NewTag(name)
		}
		var multiplier decimal.Decimal
		switch m := raw.GetKind().(type) {
		case *structpb.Value_NumberValue:
			multiplier = decimal.NewFromFloat(m.NumberValue)
		case *structpb.Value_StringValue:
			multiplier, err = decimal.NewFromString(strings.TrimSpace(m.StringValue))
			if err != nil {
				return person.Tag{}, status.Errorf(codes.InvalidArgument, "tag %q: invalid multiplier %q", name, m.StringValue)
			}
		default:
			return person.Tag{}, status.Errorf(codes.InvalidArgument, "tag %q: multiplier must be a number or string", name)
		}
		return person.NewMultiplierTag(name, multiplier)
	default:
		return person.Tag{}, status.Error(codes.InvalidArgument, "tag must be a string or an object")
	}
}

func toProtoPerson(p person.Person) map[string]any {
	tags := make([]any, 0, len(p.Tags()))
	for _, t := range person.EncodeTags(p.Tags()) {
		tag := map[string]any{"name": t.Name}
		if t.Multiplier != nil {
			tag["multiplier"] = *t.Multiplier
		}
		tags = append(tags, tag)
	}

	jobs := make(map[string]any, len(p.Jobs()))
	for id, paid := range p.Jobs() {
		jobs[id] = paid
	}

	return map[string]any{
		"id":         p.ID(),
		"name":       p.Name(),
		"phone":      p.Phone(),
		"email":      p.Email(),
		"address":    p.Address(),
		"tags":       tags,
		"owedSalary": p.OwedSalary().String(),
		"jobs":       jobs,
	}
}

func toProtoJob(j job.Job) map[string]any {
	persons := make([]any, 0, len(j.Persons()))
	for _, id := range j.Persons() {
		persons = append(persons, id)
	}

	return map[string]any{
		"id":   j.ID(),
		"name": j.Name(),
		"rate": map[string]any{
			"amount": j.Rate().Amount().String(),
			"period": j.Rate().Period().String(),
		},
		"duration": j.Duration().String(),
		"paid":     j.Paid(),
		"persons":  persons,
		"pay":      j.CalculatePay().String(),
	}
}

func toProtoPersons(persons []person.Person) []any {
	out := make([]any, 0, len(persons))
	for _, p := range persons {
		out = append(out, toProtoPerson(p))
	}
	return out
}

func toProtoJobs(jobs []job.Job) []any {
	out := make([]any, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toProtoJob(j))
	}
	return out
}

func newResponse(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}
