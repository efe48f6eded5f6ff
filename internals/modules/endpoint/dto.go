package endpoint

type CreateEndpointRequest struct {
	Name            string            `json:"name" validate:"required,min=1,max=100"`
	Url             string            `json:"url" validate:"required,http_url"`
	CheckIntervalMs *int32            `json:"check_interval_ms" validate:"omitempty,gt=0"`
	TimeoutMs       *int32            `json:"timeout_ms" validate:"omitempty,gt=0"`
	Headers         map[string]string `json:"headers" validate:"omitempty,dive,keys,required,max=256,endkeys,max=4096"`
}

type UpdateEndpointRequest struct {
	Name            *string           `json:"name" validate:"omitempty,min=1,max=100"`
	Url             *string           `json:"url" validate:"omitempty,http_url"`
	CheckIntervalMs *int32            `json:"check_interval_ms" validate:"omitempty,gt=0"`
	TimeoutMs       *int32            `json:"timeout_ms" validate:"omitempty,gt=0"`
	Headers         map[string]string `json:"headers" validate:"omitempty,dive,keys,required,max=256,endkeys,max=4096"`
}

type DeleteEndpointResponse struct {
	ID string `json:"id"`
}
