// Command kerneldemo exercises the object kernel end to end: reflection,
// signal/slot delivery, and the application timer loop, in the style of
// the teacher's own examples/ directory.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dirpx/cobject/app"
	"github.com/dirpx/cobject/config"
	"github.com/dirpx/cobject/internal/klog"
	"github.com/dirpx/cobject/kernel"
	"github.com/dirpx/cobject/meta"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "kerneldemo",
	Short: "Demonstrates the object kernel's reflection, signals, and timers",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		if cfg.Verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			klog.Set(l.Sugar())
		}
		return nil
	},
}

var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Round-trips a class descriptor through the registry and invoker",
	RunE:  runReflect,
}

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Connects a signal to a slot and emits it directly",
	RunE:  runSignal,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Starts the application loop with a repeating timer until interrupted",
	RunE:  runLoop,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// counter is a reflective domain type embedding *kernel.Object: the class
// factory constructs the Object half and calls SetSelf(counter) so the
// PropertyDescriptor/MethodDescriptor adapters below, which type-assert
// their receiver down to *counter, see the right concrete value whether
// they're reached through the bare meta layer (runReflect) or through an
// Object's SetProperty/meta-call path (runSignal).
type counter struct {
	*kernel.Object
	value int
}

var counterCls *meta.ClassDescriptor

func init() {
	counterCls = meta.NewClassDescriptor("demo.Counter", nil, func() any {
		c := &counter{Object: kernel.New(counterCls, nil)}
		c.SetSelf(c)
		return c
	})
	counterCls.AddProperty(&meta.PropertyDescriptor{
		Name: "value",
		Type: meta.KindInt,
		Get:  func(recv any) meta.Value { return meta.NewValue(recv.(*counter).value) },
		Set: func(recv any, v meta.Value) bool {
			i, ok := v.Int()
			if !ok {
				return false
			}
			recv.(*counter).value = i
			return true
		},
		NotifySignal: "valueChanged",
	})
	counterCls.AddSignal(&meta.SignalDescriptor{Name: "valueChanged", Signature: "void(int)"})
	counterCls.AddMethod(&meta.MethodDescriptor{
		Name: "increment",
		Invoke: meta.MakeInvoker(0, func(recv *counter, args []meta.Value) (meta.Value, error) {
			recv.value++
			return meta.Invalid(), nil
		}),
	})
}

func runReflect(cmd *cobra.Command, args []string) error {
	meta.Register(counterCls)

	found, ok := meta.Find("demo.Counter")
	if !ok {
		return fmt.Errorf("class %q not found in registry after Register", counterCls.Name())
	}

	instance := found.CreateInstance()
	method, ok := found.FindMethod("increment")
	if !ok {
		return fmt.Errorf("method increment not found")
	}
	if _, err := method.Invoke(instance, nil); err != nil {
		return fmt.Errorf("invoke increment: %w", err)
	}

	prop, _ := found.FindProperty("value")
	fmt.Printf("class=%s value=%v\n", found.Name(), prop.Get(instance).Interface())
	return nil
}

func runSignal(cmd *cobra.Command, args []string) error {
	sender := counterCls.CreateInstance().(*counter)
	receiver := counterCls.CreateInstance().(*counter)

	changed := 0
	_, err := kernel.Connect(sender.Object, "valueChanged", receiver.Object, "increment", kernel.Direct)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	fmt.Println("emitting valueChanged three times via a Direct connection")
	for i := 0; i < 3; i++ {
		sender.SetProperty("value", meta.NewValue(i+1))
		changed++
	}

	v, _ := receiver.Property("value")
	fmt.Printf("receiver.value=%v after %d emissions\n", v.Interface(), changed)
	return nil
}

type tickingObject struct {
	*kernel.Object
	ticks int
}

func newTickingObject() *tickingObject {
	o := &tickingObject{Object: kernel.New(nil, nil)}
	o.SetSelf(o)
	return o
}

func (t *tickingObject) OnTimerEvent(e *kernel.Event) {
	t.ticks++
	fmt.Printf("tick %d\n", t.ticks)
}

func runLoop(cmd *cobra.Command, args []string) error {
	application, err := app.NewWithDriver(cfg.Driver)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer application.Close()

	obj := newTickingObject()
	obj.StartTimer(cfg.DefaultTimerTickMs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		application.Quit()
	}()

	go func() {
		time.Sleep(5 * time.Second)
		application.Quit()
	}()

	code := application.Exec()
	fmt.Printf("exited with code %d after %d ticks\n", code, obj.ticks)
	return nil
}
