package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
)

// RDSClient implements API against Amazon RDS.
type RDSClient struct {
	client *rds.Client
}

var _ API = (*RDSClient)(nil)

// NewRDSClient builds a client from the ambient AWS configuration
// (environment, shared config, instance role).
func NewRDSClient(ctx context.Context) (*RDSClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &RDSClient{client: rds.NewFromConfig(cfg)}, nil
}

// CreateInstance submits a create request and returns the initial handle.
func (c *RDSClient) CreateInstance(ctx context.Context, in CreateInstanceInput) (*DBInstance, error) {
	out, err := c.client.CreateDBInstance(ctx, &rds.CreateDBInstanceInput{
		DBInstanceIdentifier:  aws.String(in.ID),
		DBInstanceClass:       aws.String(in.InstanceClass),
		Engine:                aws.String(in.Engine),
		EngineVersion:         aws.String(in.EngineVersion),
		AllocatedStorage:      aws.Int32(in.AllocatedStorage),
		MasterUsername:        aws.String(in.MasterUsername),
		MasterUserPassword:    aws.String(in.MasterPassword),
		DBParameterGroupName:  aws.String(in.ParameterGroupName),
		VpcSecurityGroupIds:   in.SecurityGroups,
		BackupRetentionPeriod: aws.Int32(in.BackupRetention),
		PreferredBackupWindow: aws.String(in.BackupWindow),
	})
	if err != nil {
		return nil, fmt.Errorf("create instance %s: %w", in.ID, err)
	}
	return fromSDKInstance(out.DBInstance), nil
}

// DescribeInstance re-queries a single instance by identifier.
func (c *RDSClient) DescribeInstance(ctx context.Context, id string) (*DBInstance, error) {
	out, err := c.client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(id),
	})
	if err != nil {
		var notFound *types.DBInstanceNotFoundFault
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("describe instance %s: %w", id, ErrInstanceNotFound)
		}
		return nil, fmt.Errorf("describe instance %s: %w", id, err)
	}
	if len(out.DBInstances) == 0 {
		return nil, fmt.Errorf("describe instance %s: %w", id, ErrInstanceNotFound)
	}
	return fromSDKInstance(&out.DBInstances[0]), nil
}

// ListInstances returns every live instance, following pagination markers.
func (c *RDSClient) ListInstances(ctx context.Context) ([]*DBInstance, error) {
	var instances []*DBInstance
	var marker *string
	for {
		out, err := c.client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
			Marker: marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list instances: %w", err)
		}
		for i := range out.DBInstances {
			instances = append(instances, fromSDKInstance(&out.DBInstances[i]))
		}
		if out.Marker == nil || *out.Marker == "" {
			break
		}
		marker = out.Marker
	}
	return instances, nil
}

// DeleteInstance requests deletion without a final snapshot.
func (c *RDSClient) DeleteInstance(ctx context.Context, id string) error {
	_, err := c.client.DeleteDBInstance(ctx, &rds.DeleteDBInstanceInput{
		DBInstanceIdentifier: aws.String(id),
		SkipFinalSnapshot:    aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("delete instance %s: %w", id, err)
	}
	return nil
}

// CreateParameterGroup registers a named configuration group.
func (c *RDSClient) CreateParameterGroup(ctx context.Context, name, family, description string) error {
	_, err := c.client.CreateDBParameterGroup(ctx, &rds.CreateDBParameterGroupInput{
		DBParameterGroupName:   aws.String(name),
		DBParameterGroupFamily: aws.String(family),
		Description:            aws.String(description),
	})
	if err != nil {
		return fmt.Errorf("create parameter group %s: %w", name, err)
	}
	return nil
}

// DescribeParameters returns one catalog page and its continuation marker.
func (c *RDSClient) DescribeParameters(ctx context.Context, group, marker string) ([]string, string, error) {
	in := &rds.DescribeDBParametersInput{
		DBParameterGroupName: aws.String(group),
	}
	if marker != "" {
		in.Marker = aws.String(marker)
	}
	out, err := c.client.DescribeDBParameters(ctx, in)
	if err != nil {
		return nil, "", fmt.Errorf("describe parameters for %s: %w", group, err)
	}
	names := make([]string, 0, len(out.Parameters))
	for _, p := range out.Parameters {
		names = append(names, aws.ToString(p.ParameterName))
	}
	return names, aws.ToString(out.Marker), nil
}

// ModifyParameter overrides a single parameter, applied immediately.
func (c *RDSClient) ModifyParameter(ctx context.Context, group, name, value string) error {
	_, err := c.client.ModifyDBParameterGroup(ctx, &rds.ModifyDBParameterGroupInput{
		DBParameterGroupName: aws.String(group),
		Parameters: []types.Parameter{
			{
				ParameterName:  aws.String(name),
				ParameterValue: aws.String(value),
				ApplyMethod:    types.ApplyMethodImmediate,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("modify parameter %s in %s: %w", name, group, err)
	}
	return nil
}

// DeleteParameterGroup removes a configuration group.
func (c *RDSClient) DeleteParameterGroup(ctx context.Context, name string) error {
	_, err := c.client.DeleteDBParameterGroup(ctx, &rds.DeleteDBParameterGroupInput{
		DBParameterGroupName: aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("delete parameter group %s: %w", name, err)
	}
	return nil
}

func fromSDKInstance(in *types.DBInstance) *DBInstance {
	if in == nil {
		return nil
	}
	inst := &DBInstance{
		ID:     aws.ToString(in.DBInstanceIdentifier),
		Status: InstanceStatus(aws.ToString(in.DBInstanceStatus)),
	}
	if in.Endpoint != nil {
		inst.Endpoint = aws.ToString(in.Endpoint.Address)
		inst.Port = int(aws.ToInt32(in.Endpoint.Port))
	}
	return inst
}
